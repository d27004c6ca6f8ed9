package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/tailtalk/roomsync/internal/channel"
	"github.com/tailtalk/roomsync/internal/config"
	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/rest"
	"github.com/tailtalk/roomsync/internal/room"
	"github.com/tailtalk/roomsync/internal/view"
	"github.com/tailtalk/roomsync/pkg/log"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: roomtail <room-id> [chat|review]")
		os.Exit(2)
	}
	roomID := os.Args[1]
	kindName := domain.KindChat.Name
	if len(os.Args) > 2 {
		kindName = os.Args[2]
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()

	kind, err := domain.KindByName(kindName)
	if err != nil {
		l.Fatal().Str(log.FieldKind, kindName).Msg("unknown post kind")
	}

	me := domain.User{
		ID:          os.Getenv("ROOMSYNC_USER_ID"),
		DisplayName: os.Getenv("ROOMSYNC_USER_NAME"),
	}

	dial := func(ctx context.Context, credential string) (room.Transport, error) {
		return channel.Dial(ctx, cfg.ChannelURL, credential, cfg.WebSocket, *l)
	}

	session := room.NewSession(roomID, kind, me, cfg.Credential, dial, *l)
	restc := rest.NewClient(cfg.APIBaseURL, cfg.Credential, nil, *l)
	ctrl := view.NewController(session, restc, cfg.HistoryLimit, *l)
	ctrl.Redisplay = func() { render(ctrl) }

	ctx := context.Background()
	if err := ctrl.Open(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to open room")
	}
	defer ctrl.Close()

	ctrl.StartClock(cfg.ClockTick)
	render(ctrl)

	// Each stdin line becomes a post; the printed stream only moves when
	// the channel echoes it back.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		body := scanner.Text()
		if body == "" {
			continue
		}
		if err := session.SubmitCreate(body, nil); err != nil {
			fmt.Fprintf(os.Stderr, "rejected: %v\n", err)
		}
	}
}

func render(ctrl *view.Controller) {
	session := ctrl.Session()
	posts := session.Posts().Posts()

	fmt.Printf("\n--- %s (%s) · %d posts ---\n", session.RoomID(), session.Kind().Name, len(posts))
	for _, p := range posts {
		marker := " "
		if session.Reactions().HasUserReacted(p.ID, session.CurrentUser().ID) {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s: %s\n", marker, view.RelativeLabel(p.CreatedAt), p.Author.DisplayName, p.Body)
		for _, a := range p.Attachments {
			fmt.Printf("    attachment: %s (%s)\n", a.Name, a.URL)
		}
	}
}
