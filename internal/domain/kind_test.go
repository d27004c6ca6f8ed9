package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDraftEmpty(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t "} {
		if err := KindChat.ValidateDraft(body, nil); !errors.Is(err, ErrEmptyPost) {
			t.Fatalf("body %q: expected ErrEmptyPost, got %v", body, err)
		}
	}
}

func TestValidateDraftAttachmentOnly(t *testing.T) {
	atts := []Attachment{{URL: "https://cdn.example.com/a.jpg"}}
	if err := KindChat.ValidateDraft("", atts); err != nil {
		t.Fatalf("attachment-only draft should be valid, got %v", err)
	}
}

func TestValidateDraftBodyLimitIsCodePoints(t *testing.T) {
	// 1000 multibyte runes are exactly at the chat limit.
	body := strings.Repeat("é", 1000)
	if err := KindChat.ValidateDraft(body, nil); err != nil {
		t.Fatalf("1000 code points should pass, got %v", err)
	}
	if err := KindChat.ValidateDraft(body+"x", nil); !errors.Is(err, ErrBodyTooLong) {
		t.Fatalf("1001 code points should fail, got %v", err)
	}

	// Reviews allow up to 2000.
	if err := KindReview.ValidateDraft(body+body, nil); err != nil {
		t.Fatalf("2000 code points should pass for review, got %v", err)
	}
}

func TestValidateDraftAttachmentCap(t *testing.T) {
	atts := make([]Attachment, 4)
	for i := range atts {
		atts[i] = Attachment{URL: "https://cdn.example.com/a.jpg"}
	}

	if err := KindChat.ValidateDraft("hi", atts); !errors.Is(err, ErrTooManyAttachments) {
		t.Fatalf("chat caps at 3 attachments, got %v", err)
	}
	if err := KindChat.ValidateDraft("hi", atts[:3]); err != nil {
		t.Fatalf("3 attachments should pass for chat, got %v", err)
	}
	// Reviews are uncapped.
	if err := KindReview.ValidateDraft("hi", atts); err != nil {
		t.Fatalf("reviews are uncapped, got %v", err)
	}
}

func TestKindByName(t *testing.T) {
	k, err := KindByName("review")
	if err != nil || k.Name != KindReview.Name {
		t.Fatalf("expected review kind, got %v %v", k, err)
	}
	if _, err := KindByName("poll"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestReactionSetHasUser(t *testing.T) {
	set := ReactionSet{
		"👍": {{ID: "u1", DisplayName: "Ann"}},
		"🎉": {{ID: "u2", DisplayName: "Ben"}},
	}
	if !set.HasUser("u1") || !set.HasUser("u2") {
		t.Fatalf("expected both users present")
	}
	if set.HasUser("u3") {
		t.Fatalf("u3 should not be present")
	}
	if ReactionSet(nil).HasUser("u1") {
		t.Fatalf("nil set holds nobody")
	}
}
