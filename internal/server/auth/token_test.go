package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/tailtalk/roomsync/internal/domain"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "roomsyncd")
	user := domain.User{ID: "u1", DisplayName: "Ann", AvatarURL: "https://cdn.example.com/ann.png"}

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != user {
		t.Fatalf("identity mismatch: %+v", got)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour, "roomsyncd")
	verifier := NewManager("secret-b", time.Hour, "roomsyncd")

	token, err := issuer.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, "roomsyncd")
	token, err := m.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "roomsyncd")
	if _, err := m.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestFromHeader(t *testing.T) {
	if tok, ok := FromHeader("Bearer abc123"); !ok || tok != "abc123" {
		t.Fatalf("expected abc123, got %q ok=%v", tok, ok)
	}
	if _, ok := FromHeader("Basic abc123"); ok {
		t.Fatalf("non-bearer scheme must be rejected")
	}
	if _, ok := FromHeader("Bearer "); ok {
		t.Fatalf("empty token must be rejected")
	}
	if _, ok := FromHeader(""); ok {
		t.Fatalf("missing header must be rejected")
	}
}
