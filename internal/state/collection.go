package state

import (
	"sync"

	"github.com/tailtalk/roomsync/internal/domain"
)

// PostCollection holds the ordered, id-keyed post list for one room.
// Order is arrival order: the channel is the single serialization point per
// room, so append order is authoritative. Replace keeps position; there is
// no deduplication beyond id equality.
type PostCollection struct {
	posts []domain.Post
	index map[string]int
	mu    sync.RWMutex
}

func NewPostCollection() *PostCollection {
	return &PostCollection{
		index: make(map[string]int),
	}
}

// Snapshot replaces the whole collection, used for the initial history load.
func (c *PostCollection) Snapshot(posts []domain.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = make([]domain.Post, len(posts))
	copy(c.posts, posts)
	c.index = make(map[string]int, len(posts))
	for i, p := range c.posts {
		c.index[p.ID] = i
	}
}

// Append adds a post at the end of the order.
func (c *PostCollection) Append(p domain.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[p.ID] = len(c.posts)
	c.posts = append(c.posts, p)
}

// ReplaceByID swaps the entry with the same id in place, preserving its
// position. A miss is a no-op: updates for posts we never saw are stale and
// silently tolerated.
func (c *PostCollection) ReplaceByID(p domain.Post) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[p.ID]
	if !ok {
		return false
	}
	c.posts[i] = p
	return true
}

// RemoveByID deletes the entry with the given id. A miss is a no-op.
func (c *PostCollection) RemoveByID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.posts = append(c.posts[:i], c.posts[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.posts); j++ {
		c.index[c.posts[j].ID] = j
	}
	return true
}

// Get returns the post with the given id.
func (c *PostCollection) Get(id string) (domain.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return domain.Post{}, false
	}
	return c.posts[i], true
}

// Posts returns a copy of the current order.
func (c *PostCollection) Posts() []domain.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Len returns the number of posts held.
func (c *PostCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posts)
}
