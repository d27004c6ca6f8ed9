package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tailtalk/roomsync/internal/channel"
	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/server/auth"
	"github.com/tailtalk/roomsync/internal/server/hub"
	"github.com/tailtalk/roomsync/internal/server/service"
	"github.com/tailtalk/roomsync/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades channel connections and dispatches intents. Identity
// comes from the bearer token on the upgrade request; an absent or bad
// credential rejects the upgrade, which the engine reports as a failed dial.
type WSHandler struct {
	hub     *hub.Hub
	service service.RoomService
	tokens  *auth.Manager
	wsCfg   channel.Config
}

func NewWSHandler(h *hub.Hub, svc service.RoomService, tokens *auth.Manager, wsCfg channel.Config) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		tokens:  tokens,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.FromHeader(r.Header.Get("Authorization"))
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	user, err := h.tokens.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), user, h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleMessage)
		h.service.HandleDisconnect(context.Background(), client)
	}()
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid join_room message"))
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client, msg.RoomID, msg.Kind); err != nil {
			log.L().Warn().Err(err).Str("client_id", client.ID).Msg("join room failed")
		}

	case domain.MsgTypeLeaveRoom:
		if err := h.service.HandleLeaveRoom(ctx, client); err != nil {
			log.L().Warn().Err(err).Str("client_id", client.ID).Msg("leave room failed")
		}

	case domain.MsgTypeCreatePost:
		var msg domain.CreatePostMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid create_post message"))
			return
		}
		if err := h.service.HandleCreatePost(ctx, client, msg); err != nil {
			log.L().Warn().Err(err).Str("client_id", client.ID).Msg("create post failed")
		}

	case domain.MsgTypeUpdatePost:
		var msg domain.UpdatePostMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid update_post message"))
			return
		}
		if err := h.service.HandleUpdatePost(ctx, client, msg); err != nil {
			log.L().Warn().Err(err).Str("client_id", client.ID).Msg("update post failed")
		}

	case domain.MsgTypeDeletePost:
		var msg domain.DeletePostMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid delete_post message"))
			return
		}
		if err := h.service.HandleDeletePost(ctx, client, msg); err != nil {
			log.L().Warn().Err(err).Str("client_id", client.ID).Msg("delete post failed")
		}

	case domain.MsgTypeToggleReaction:
		var msg domain.ToggleReactionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid toggle_reaction message"))
			return
		}
		if err := h.service.HandleToggleReaction(ctx, client, msg); err != nil {
			log.L().Warn().Err(err).Str("client_id", client.ID).Msg("toggle reaction failed")
		}

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}
