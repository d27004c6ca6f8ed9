package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyPost          = errors.New("post must have a body or at least one attachment")
	ErrBodyTooLong        = errors.New("body exceeds length limit")
	ErrTooManyAttachments = errors.New("too many attachments")
	ErrUnknownKind        = errors.New("unknown post kind")
)

// Kind describes one post variant. The chat and review streams speak the
// same protocol; only the composition limits differ.
type Kind struct {
	Name string
	// BodyLimit is the maximum body length in code points.
	BodyLimit int
	// MaxAttachments caps attachments per post. Zero means uncapped.
	MaxAttachments int
}

var (
	KindChat   = Kind{Name: "chat", BodyLimit: 1000, MaxAttachments: 3}
	KindReview = Kind{Name: "review", BodyLimit: 2000}
)

// KindByName resolves a kind from its wire name.
func KindByName(name string) (Kind, error) {
	switch name {
	case KindChat.Name:
		return KindChat, nil
	case KindReview.Name:
		return KindReview, nil
	default:
		return Kind{}, ErrUnknownKind
	}
}

// ValidateDraft checks a composition before any intent is sent. A draft with
// neither text nor attachments is never submitted.
func (k Kind) ValidateDraft(body string, attachments []Attachment) error {
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		return ErrEmptyPost
	}
	if utf8.RuneCountInString(body) > k.BodyLimit {
		return ErrBodyTooLong
	}
	if k.MaxAttachments > 0 && len(attachments) > k.MaxAttachments {
		return ErrTooManyAttachments
	}
	return nil
}
