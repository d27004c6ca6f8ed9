package room

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/state"
	"github.com/tailtalk/roomsync/pkg/log"
)

// Session is the single authoritative bridge between one room and the push
// channel. It owns the room's post collection and reaction store; every
// durable state change flows through inbound channel events, including the
// echoes of this client's own intents. There is no optimistic mutation.
type Session struct {
	roomID     string
	kind       domain.Kind
	me         domain.User
	credential string
	dial       Dialer
	logger     zerolog.Logger

	posts     *state.PostCollection
	reactions *state.ReactionStore

	mu        sync.Mutex
	transport Transport
	active    bool
	observer  func(event, postID string)
}

// NewSession builds an inactive session for one room id. A session is bound
// to exactly one room for its whole life; switching rooms means tearing this
// one down and activating a new one.
func NewSession(roomID string, kind domain.Kind, me domain.User, credential string, dial Dialer, logger zerolog.Logger) *Session {
	return &Session{
		roomID:     roomID,
		kind:       kind,
		me:         me,
		credential: credential,
		dial:       dial,
		logger:     logger.With().Str(log.FieldRoomID, roomID).Str(log.FieldKind, kind.Name).Logger(),
		posts:      state.NewPostCollection(),
		reactions:  state.NewReactionStore(),
	}
}

// Posts exposes the room's post collection.
func (s *Session) Posts() *state.PostCollection { return s.posts }

// Reactions exposes the room's reaction store.
func (s *Session) Reactions() *state.ReactionStore { return s.reactions }

// RoomID returns the room this session is bound to.
func (s *Session) RoomID() string { return s.roomID }

// Kind returns the post kind this session carries.
func (s *Session) Kind() domain.Kind { return s.kind }

// CurrentUser returns the identity outbound intents act as.
func (s *Session) CurrentUser() domain.User { return s.me }

// SetObserver registers a callback invoked after each applied inbound event
// with the event type and the affected post id. The view layer uses it to
// drop transient state (edit buffers, popovers) on echoes and to trigger
// redisplay. Must be set before Activate.
func (s *Session) SetObserver(fn func(event, postID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

func (s *Session) notify(event, postID string) {
	s.mu.Lock()
	fn := s.observer
	s.mu.Unlock()
	if fn != nil {
		fn(event, postID)
	}
}

// Active reports whether the channel connection is up.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate opens the channel connection and joins the room. Without a
// credential the session stays inactive and outbound intents are dropped;
// that is a logged condition, not an error, so an anonymous view can still
// render REST history. A failed dial leaves the session reactivatable.
func (s *Session) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.credential == "" {
		s.logger.Warn().Msg("no credential, session stays read-only")
		return nil
	}

	t, err := s.dial(ctx, s.credential)
	if err != nil {
		s.logger.Error().Err(err).Msg("channel dial failed")
		return err
	}

	s.mu.Lock()
	s.transport = t
	s.active = true
	s.mu.Unlock()

	t.Send(&domain.JoinRoomMessage{
		Type:   domain.MsgTypeJoinRoom,
		RoomID: s.roomID,
		Kind:   s.kind.Name,
	})

	go func() {
		t.Run(s.handleFrame)

		// The transport died on its own. Mark the session inactive so a
		// retry of Activate dials again; if Deactivate already swapped the
		// transport out, there is nothing left to do.
		s.mu.Lock()
		lost := s.transport == t
		if lost {
			s.active = false
			s.transport = nil
		}
		s.mu.Unlock()
		if lost {
			s.logger.Warn().Msg("channel connection lost")
		}
	}()

	s.logger.Info().Msg("session activated")
	return nil
}

// Deactivate leaves the room and closes the transport. Idempotent: calling
// it twice sends one leave and is otherwise a no-op.
func (s *Session) Deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	t := s.transport
	s.active = false
	s.transport = nil
	s.mu.Unlock()

	t.Send(&domain.LeaveRoomMessage{
		Type:   domain.MsgTypeLeaveRoom,
		RoomID: s.roomID,
	})
	t.Close()

	s.logger.Info().Msg("session deactivated")
}

// SubmitCreate validates the draft and sends a create intent. The post
// appears in the collection only when the channel echoes post_created.
func (s *Session) SubmitCreate(body string, attachments []domain.Attachment) error {
	if err := s.kind.ValidateDraft(body, attachments); err != nil {
		return err
	}
	s.send(&domain.CreatePostMessage{
		Type:        domain.MsgTypeCreatePost,
		RoomID:      s.roomID,
		Kind:        s.kind.Name,
		Body:        body,
		Attachments: attachments,
	})
	return nil
}

// SubmitUpdate validates and sends an update intent. Nil attachments leave
// the stored ones untouched; list mutation waits for the echoed event.
func (s *Session) SubmitUpdate(postID, body string, attachments []domain.Attachment) error {
	effective := attachments
	if effective == nil {
		if p, ok := s.posts.Get(postID); ok {
			effective = p.Attachments
		}
	}
	if err := s.kind.ValidateDraft(body, effective); err != nil {
		return err
	}
	s.send(&domain.UpdatePostMessage{
		Type:        domain.MsgTypeUpdatePost,
		RoomID:      s.roomID,
		PostID:      postID,
		Body:        body,
		Attachments: attachments,
	})
	return nil
}

// SubmitDelete sends a delete intent. Confirmation is the caller's concern;
// removal happens on the echoed post_deleted event.
func (s *Session) SubmitDelete(postID string) {
	s.send(&domain.DeletePostMessage{
		Type:   domain.MsgTypeDeletePost,
		RoomID: s.roomID,
		PostID: postID,
	})
}

// ToggleReaction sends a toggle intent for one reaction key. The store
// changes only when the server broadcasts the recomputed aggregate.
func (s *Session) ToggleReaction(postID, reaction string) {
	s.send(&domain.ToggleReactionMessage{
		Type:     domain.MsgTypeToggleReaction,
		RoomID:   s.roomID,
		PostID:   postID,
		Reaction: reaction,
	})
}

func (s *Session) send(v interface{}) {
	s.mu.Lock()
	t, active := s.transport, s.active
	s.mu.Unlock()

	if !active {
		s.logger.Debug().Msg("intent dropped, channel inactive")
		return
	}
	if err := t.Send(v); err != nil {
		s.logger.Warn().Err(err).Msg("intent send failed")
	}
}

func (s *Session) handleFrame(message []byte) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		// Late frame after Deactivate; the collection it targeted is gone.
		return
	}

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		s.logger.Warn().Err(err).Msg("malformed channel frame")
		return
	}

	switch base.Type {
	case domain.MsgTypePostCreated:
		var msg domain.PostCreatedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, base.Type).Msg("malformed event")
			return
		}
		if !s.forThisRoom(msg.RoomID, base.Type) {
			return
		}
		s.posts.Append(msg.Post)
		s.notify(base.Type, msg.Post.ID)

	case domain.MsgTypePostUpdated:
		var msg domain.PostUpdatedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, base.Type).Msg("malformed event")
			return
		}
		if !s.forThisRoom(msg.RoomID, base.Type) {
			return
		}
		if s.posts.ReplaceByID(msg.Post) {
			s.notify(base.Type, msg.Post.ID)
		} else {
			s.logger.Debug().Str(log.FieldPostID, msg.Post.ID).Msg("update for unknown post ignored")
		}

	case domain.MsgTypePostDeleted:
		var msg domain.PostDeletedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, base.Type).Msg("malformed event")
			return
		}
		if !s.forThisRoom(msg.RoomID, base.Type) {
			return
		}
		if s.posts.RemoveByID(msg.PostID) {
			s.reactions.RemoveForPost(msg.PostID)
			s.notify(base.Type, msg.PostID)
		}

	case domain.MsgTypeReactionUpdated:
		var msg domain.ReactionUpdatedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, base.Type).Msg("malformed event")
			return
		}
		if !s.forThisRoom(msg.RoomID, base.Type) {
			return
		}
		s.reactions.SetForPost(msg.PostID, msg.Reactions)
		s.notify(base.Type, msg.PostID)

	case domain.MsgTypeRoomJoined:
		s.logger.Info().Msg("room joined")

	case domain.MsgTypeError:
		var msg domain.ErrorMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn().Err(err).Msg("malformed error event")
			return
		}
		s.logger.Warn().Str("code", msg.Code).Str("message", msg.Message).Msg("channel error")

	default:
		s.logger.Debug().Str(log.FieldEvent, base.Type).Msg("unknown event type ignored")
	}
}

// forThisRoom guards cross-room isolation: an event tagged for another room
// must never mutate this session's state.
func (s *Session) forThisRoom(roomID, event string) bool {
	if roomID == s.roomID {
		return true
	}
	s.logger.Debug().Str(log.FieldEvent, event).Str("event_room_id", roomID).Msg("cross-room event dropped")
	return false
}
