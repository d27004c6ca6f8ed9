package state

import (
	"sync"

	"github.com/tailtalk/roomsync/internal/domain"
)

// ReactionStore keeps the per-post reaction aggregates for one room.
// Every write is a full snapshot replace, which makes duplicate or
// reordered delivery of reaction_updated events harmless.
type ReactionStore struct {
	byPost map[string]domain.ReactionSet
	mu     sync.RWMutex
}

func NewReactionStore() *ReactionStore {
	return &ReactionStore{
		byPost: make(map[string]domain.ReactionSet),
	}
}

// SetForPost replaces the aggregate for a post with the server snapshot.
func (s *ReactionStore) SetForPost(postID string, set domain.ReactionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPost[postID] = set.Clone()
}

// RemoveForPost drops the aggregate, called when the post itself is removed.
func (s *ReactionStore) RemoveForPost(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPost, postID)
}

// ForPost returns a copy of the aggregate for a post, nil if none is held.
func (s *ReactionStore) ForPost(postID string) domain.ReactionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byPost[postID].Clone()
}

// HasUserReacted reports whether the user appears under any reaction key of
// the post. This gates the "add reaction" affordance only; it implies
// nothing about per-user reaction cardinality.
func (s *ReactionStore) HasUserReacted(postID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byPost[postID].HasUser(userID)
}
