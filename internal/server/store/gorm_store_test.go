package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tailtalk/roomsync/internal/domain"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedPost(t *testing.T, s *GormStore, id, roomID, kind, body string, at time.Time) {
	t.Helper()
	err := s.CreatePost(context.Background(), domain.Post{
		ID:        id,
		RoomID:    roomID,
		Kind:      kind,
		Author:    domain.User{ID: "u1", DisplayName: "Ann"},
		Body:      body,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestHistoryIsBoundedAndOldestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedPost(t, s, fmt.Sprintf("p%d", i), "breed-7", "chat", fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	posts, err := s.History(context.Background(), "breed-7", "chat", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected window of 3, got %d", len(posts))
	}
	// The 3 newest, returned oldest first.
	for i, want := range []string{"p2", "p3", "p4"} {
		if posts[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, posts[i].ID)
		}
	}
}

func TestHistoryScopedByRoomAndKind(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	seedPost(t, s, "c1", "breed-7", "chat", "chat post", now)
	seedPost(t, s, "r1", "breed-7", "review", "review post", now)
	seedPost(t, s, "c2", "breed-9", "chat", "other room", now)

	posts, err := s.History(context.Background(), "breed-7", "chat", 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "c1" {
		t.Fatalf("expected only c1, got %+v", posts)
	}
}

func TestUpdatePostRewritesBodyAndAttachments(t *testing.T) {
	s := openTestStore(t)
	seedPost(t, s, "p1", "breed-7", "chat", "before", time.Now().UTC())

	post, _, err := s.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	post.Body = "after"
	post.Attachments = []domain.Attachment{{URL: "https://cdn.example.com/a.jpg", Name: "a.jpg"}}
	if err := s.UpdatePost(context.Background(), post); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, found, err := s.GetPost(context.Background(), "p1")
	if err != nil || !found {
		t.Fatalf("get after update: %v found=%v", err, found)
	}
	if got.Body != "after" {
		t.Fatalf("body not updated, got %q", got.Body)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Name != "a.jpg" {
		t.Fatalf("attachments not round-tripped: %+v", got.Attachments)
	}
}

func TestDeletePostRemovesReactions(t *testing.T) {
	s := openTestStore(t)
	seedPost(t, s, "p1", "breed-7", "chat", "hi", time.Now().UTC())
	if _, err := s.ToggleReaction(context.Background(), "p1", "👍", domain.User{ID: "u2", DisplayName: "Ben"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if err := s.DeletePost(context.Background(), "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, err := s.GetPost(context.Background(), "p1"); err != nil || found {
		t.Fatalf("post should be gone: %v found=%v", err, found)
	}
	set, err := s.ReactionsForPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("reactions: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("reactions should be gone with the post, got %+v", set)
	}
}

func TestToggleReactionFlipsPerKey(t *testing.T) {
	s := openTestStore(t)
	seedPost(t, s, "p1", "breed-7", "chat", "hi", time.Now().UTC())
	u2 := domain.User{ID: "u2", DisplayName: "Ben"}

	set, err := s.ToggleReaction(context.Background(), "p1", "👍", u2)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !set.HasUser("u2") {
		t.Fatalf("toggle on should add u2, got %+v", set)
	}

	// A different key toggles independently.
	set, err = s.ToggleReaction(context.Background(), "p1", "🎉", u2)
	if err != nil {
		t.Fatalf("toggle second key: %v", err)
	}
	if len(set["👍"]) != 1 || len(set["🎉"]) != 1 {
		t.Fatalf("keys should toggle independently, got %+v", set)
	}

	set, err = s.ToggleReaction(context.Background(), "p1", "👍", u2)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if len(set["👍"]) != 0 {
		t.Fatalf("toggle off should remove u2 from 👍, got %+v", set)
	}
	if len(set["🎉"]) != 1 {
		t.Fatalf("other key must survive, got %+v", set)
	}
}
