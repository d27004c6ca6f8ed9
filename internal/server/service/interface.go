package service

import (
	"context"

	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/server/hub"
)

// RoomService applies room intents and broadcasts the resulting events.
type RoomService interface {
	HandleJoinRoom(ctx context.Context, client *hub.Client, roomID, kind string) error
	HandleLeaveRoom(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	HandleCreatePost(ctx context.Context, client *hub.Client, msg domain.CreatePostMessage) error
	HandleUpdatePost(ctx context.Context, client *hub.Client, msg domain.UpdatePostMessage) error
	HandleDeletePost(ctx context.Context, client *hub.Client, msg domain.DeletePostMessage) error
	HandleToggleReaction(ctx context.Context, client *hub.Client, msg domain.ToggleReactionMessage) error
}
