package store

import (
	"context"

	"github.com/tailtalk/roomsync/internal/domain"
)

// Store persists posts and reactions for the development server.
type Store interface {
	CreatePost(ctx context.Context, post domain.Post) error
	UpdatePost(ctx context.Context, post domain.Post) error
	// DeletePost removes the post and its reactions.
	DeletePost(ctx context.Context, postID string) error
	GetPost(ctx context.Context, postID string) (domain.Post, bool, error)
	// History returns the most recent limit posts of a room+kind, oldest
	// first.
	History(ctx context.Context, roomID, kind string, limit int) ([]domain.Post, error)
	// ToggleReaction flips one (post, reaction, user) membership and
	// returns the post's full aggregate afterwards.
	ToggleReaction(ctx context.Context, postID, reaction string, user domain.User) (domain.ReactionSet, error)
	ReactionsForPost(ctx context.Context, postID string) (domain.ReactionSet, error)
	Close() error
}
