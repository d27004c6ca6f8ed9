package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tailtalk/roomsync/internal/channel"
	"github.com/tailtalk/roomsync/internal/server/auth"
	"github.com/tailtalk/roomsync/internal/server/blob"
	"github.com/tailtalk/roomsync/internal/server/handler"
	"github.com/tailtalk/roomsync/internal/server/hub"
	"github.com/tailtalk/roomsync/internal/server/service"
	"github.com/tailtalk/roomsync/internal/server/store"
	"github.com/tailtalk/roomsync/pkg/log"
)

// Config wires one development room server.
type Config struct {
	TokenSecret string         `mapstructure:"token_secret"`
	TokenTTLHrs int            `mapstructure:"token_ttl_hours"`
	DBPath      string         `mapstructure:"db_path"`
	Blob        blob.Config    `mapstructure:"blob"`
	WebSocket   channel.Config `mapstructure:"websocket"`
	Debug       bool           `mapstructure:"debug"`
}

// Server bundles the hub, store, and HTTP surface of the dev collaborator.
// The integration tests run it inside an httptest server.
type Server struct {
	Hub    *hub.Hub
	Store  store.Store
	Tokens *auth.Manager
	Router *gin.Engine
}

// New builds a server from config. Call Start to run the hub loop.
func New(ctx context.Context, cfg Config) (*Server, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	ttl := cfg.TokenTTLHrs
	if ttl <= 0 {
		ttl = 24
	}
	tokens := auth.NewManager(cfg.TokenSecret, time.Duration(ttl)*time.Hour, "roomsyncd")

	h := hub.NewHub()
	svc := service.NewRoomService(h, st)
	ws := handler.NewWSHandler(h, svc, tokens, cfg.WebSocket)
	api := handler.NewHTTPHandler(st, blobs, tokens)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(log.L()))

	api.RegisterRoutes(router)
	router.GET("/channel", func(c *gin.Context) {
		ws.HandleWebSocket(c.Writer, c.Request)
	})

	return &Server{
		Hub:    h,
		Store:  st,
		Tokens: tokens,
		Router: router,
	}, nil
}

// Start runs the hub fan-out loop.
func (s *Server) Start() {
	go s.Hub.Run()
}

// Close releases the store.
func (s *Server) Close() error {
	return s.Store.Close()
}
