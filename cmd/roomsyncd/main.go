package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tailtalk/roomsync/internal/config"
	"github.com/tailtalk/roomsync/internal/server"
	"github.com/tailtalk/roomsync/pkg/log"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()

	ctx := context.Background()
	srv, err := server.New(ctx, cfg.Server)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to build server")
	}
	defer srv.Close()

	srv.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Router,
	}

	go func() {
		l.Info().Str("addr", addr).Msg("room server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("shutdown failed")
	}
}
