package domain

import "time"

// User identifies a participant. Ownership of a post is decided by ID
// equality with the current user identity.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Attachment describes an uploaded file. Produced by the uploader before a
// create/update intent is sent; raw bytes never travel over the channel.
type Attachment struct {
	URL       string `json:"url"`
	Name      string `json:"name,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Post is the common unit handled by the engine: a chat message or a review,
// distinguished by Kind. IDs are assigned by the server and are unique
// within a room.
type Post struct {
	ID          string       `json:"id"`
	RoomID      string       `json:"room_id"`
	Kind        string       `json:"kind"`
	Author      User         `json:"author"`
	Body        string       `json:"body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// OwnedBy reports whether the post belongs to the given user.
func (p Post) OwnedBy(userID string) bool {
	return userID != "" && p.Author.ID == userID
}

// ReactionSet maps a reaction key (a short emoji string or an image URL) to
// the users holding that reaction. It is always a full server-side snapshot,
// never a delta.
type ReactionSet map[string][]User

// HasUser reports whether the user appears under any reaction key.
func (r ReactionSet) HasUser(userID string) bool {
	for _, users := range r {
		for _, u := range users {
			if u.ID == userID {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so callers can hold a snapshot safely.
func (r ReactionSet) Clone() ReactionSet {
	if r == nil {
		return nil
	}
	out := make(ReactionSet, len(r))
	for key, users := range r {
		cp := make([]User, len(users))
		copy(cp, users)
		out[key] = cp
	}
	return out
}
