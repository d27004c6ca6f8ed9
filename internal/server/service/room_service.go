package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/server/hub"
	"github.com/tailtalk/roomsync/internal/server/store"
	"github.com/tailtalk/roomsync/pkg/log"
)

type roomService struct {
	hub   *hub.Hub
	store store.Store
}

func NewRoomService(h *hub.Hub, st store.Store) RoomService {
	return &roomService{
		hub:   h,
		store: st,
	}
}

func (s *roomService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID, kind string) error {
	if _, err := domain.KindByName(kind); err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown post kind"))
	}
	if roomID == "" {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "room_id is required"))
	}

	// One room per connection; joining elsewhere leaves the current room.
	if current, _ := c.Room(); current != "" {
		s.leaveInternal(c)
	}

	s.hub.JoinRoom(c, roomID)
	c.SetRoom(roomID, kind)

	return c.SendMessage(&domain.RoomJoinedMessage{
		Type:   domain.MsgTypeRoomJoined,
		RoomID: roomID,
		Kind:   kind,
	})
}

func (s *roomService) HandleLeaveRoom(ctx context.Context, c *hub.Client) error {
	s.leaveInternal(c)
	return nil
}

func (s *roomService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	s.leaveInternal(c)
	return nil
}

func (s *roomService) leaveInternal(c *hub.Client) {
	roomID, _ := c.Room()
	if roomID == "" {
		return
	}
	s.hub.LeaveRoom(c, roomID)
	c.SetRoom("", "")
}

func (s *roomService) HandleCreatePost(ctx context.Context, c *hub.Client, msg domain.CreatePostMessage) error {
	roomID, kindName := c.Room()
	if roomID == "" || roomID != msg.RoomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "not joined to this room"))
	}

	kind, err := domain.KindByName(kindName)
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown post kind"))
	}
	if err := kind.ValidateDraft(msg.Body, msg.Attachments); err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, err.Error()))
	}

	post := domain.Post{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		Kind:        kind.Name,
		Author:      c.User,
		Body:        msg.Body,
		Attachments: msg.Attachments,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("create post failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to create post"))
	}

	return s.hub.BroadcastToRoom(roomID, &domain.PostCreatedMessage{
		Type:   domain.MsgTypePostCreated,
		RoomID: roomID,
		Post:   post,
	})
}

func (s *roomService) HandleUpdatePost(ctx context.Context, c *hub.Client, msg domain.UpdatePostMessage) error {
	roomID, kindName := c.Room()
	if roomID == "" || roomID != msg.RoomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "not joined to this room"))
	}

	post, ok, err := s.store.GetPost(ctx, msg.PostID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("load post failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to load post"))
	}
	if !ok || post.RoomID != roomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "post not found"))
	}
	if !post.OwnedBy(c.User.ID) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeForbidden, "only the author may edit a post"))
	}

	post.Body = msg.Body
	if msg.Attachments != nil {
		post.Attachments = msg.Attachments
	}

	kind, err := domain.KindByName(kindName)
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown post kind"))
	}
	if err := kind.ValidateDraft(post.Body, post.Attachments); err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, err.Error()))
	}

	if err := s.store.UpdatePost(ctx, post); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("update post failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to update post"))
	}

	return s.hub.BroadcastToRoom(roomID, &domain.PostUpdatedMessage{
		Type:   domain.MsgTypePostUpdated,
		RoomID: roomID,
		Post:   post,
	})
}

func (s *roomService) HandleDeletePost(ctx context.Context, c *hub.Client, msg domain.DeletePostMessage) error {
	roomID, _ := c.Room()
	if roomID == "" || roomID != msg.RoomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "not joined to this room"))
	}

	post, ok, err := s.store.GetPost(ctx, msg.PostID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("load post failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to load post"))
	}
	if !ok || post.RoomID != roomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "post not found"))
	}
	if !post.OwnedBy(c.User.ID) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeForbidden, "only the author may delete a post"))
	}

	if err := s.store.DeletePost(ctx, msg.PostID); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("delete post failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to delete post"))
	}

	return s.hub.BroadcastToRoom(roomID, &domain.PostDeletedMessage{
		Type:   domain.MsgTypePostDeleted,
		RoomID: roomID,
		PostID: msg.PostID,
	})
}

func (s *roomService) HandleToggleReaction(ctx context.Context, c *hub.Client, msg domain.ToggleReactionMessage) error {
	roomID, _ := c.Room()
	if roomID == "" || roomID != msg.RoomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "not joined to this room"))
	}
	if msg.Reaction == "" {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "reaction is required"))
	}

	post, ok, err := s.store.GetPost(ctx, msg.PostID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("load post failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to load post"))
	}
	if !ok || post.RoomID != roomID {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "post not found"))
	}

	// Independent per-key toggle; other keys the user holds are untouched.
	set, err := s.store.ToggleReaction(ctx, msg.PostID, msg.Reaction, c.User)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("toggle reaction failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to toggle reaction"))
	}

	return s.hub.BroadcastToRoom(roomID, &domain.ReactionUpdatedMessage{
		Type:      domain.MsgTypeReactionUpdated,
		RoomID:    roomID,
		PostID:    msg.PostID,
		Reactions: set,
	})
}
