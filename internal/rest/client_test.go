package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestHistoryDecodesEnvelope(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"posts":[
			{"id":"p1","room_id":"breed-7","kind":"chat","body":"one"},
			{"id":"p2","room_id":"breed-7","kind":"chat","body":"two"}
		]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil, zerolog.Nop())
	posts, err := c.History(context.Background(), "breed-7", "chat", 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "p1" || posts[1].ID != "p2" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if gotPath != "/api/v1/rooms/breed-7/posts" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "kind=chat") || !strings.Contains(gotQuery, "limit=50") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestReactionsNilBecomesEmptySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"reactions":null}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	set, err := c.Reactions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("reactions: %v", err)
	}
	if set == nil {
		t.Fatalf("nil aggregate should decode to an empty set")
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %+v", set)
	}
}

func TestReactionsDecodesUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"reactions":{"👍":[{"id":"u1","display_name":"Ann"}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	set, err := c.Reactions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("reactions: %v", err)
	}
	if !set.HasUser("u1") {
		t.Fatalf("expected u1 in aggregate, got %+v", set)
	}
}

func TestErrorEnvelopeSurfacesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"no such room"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	if _, err := c.History(context.Background(), "ghost", "chat", 10); err == nil {
		t.Fatalf("expected error for failure envelope")
	} else if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Fatalf("error should carry the api code, got %v", err)
	}
}
