package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRecorder accepts one websocket connection and records everything the
// client sends, including how the connection ended.
type wsRecorder struct {
	mu       sync.Mutex
	auth     string
	frames   [][]byte
	closeErr error
	done     chan struct{}
}

func newWSRecorder() *wsRecorder {
	return &wsRecorder{done: make(chan struct{})}
}

func (rec *wsRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.auth = r.Header.Get("Authorization")
		rec.mu.Unlock()

		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		defer close(rec.done)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				rec.mu.Lock()
				rec.closeErr = err
				rec.mu.Unlock()
				return
			}
			rec.mu.Lock()
			rec.frames = append(rec.frames, msg)
			rec.mu.Unlock()
		}
	}
}

func (rec *wsRecorder) received() [][]byte {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([][]byte, len(rec.frames))
	copy(out, rec.frames)
	return out
}

func TestDialSendsBearerHeader(t *testing.T) {
	rec := newWSRecorder()
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(context.Background(), url, "tok", DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	go conn.Run(func([]byte) {})
	conn.Close()
	<-rec.done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.auth != "Bearer tok" {
		t.Fatalf("expected bearer header, got %q", rec.auth)
	}
}

func TestCloseFlushesQueuedFrames(t *testing.T) {
	rec := newWSRecorder()
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(context.Background(), url, "tok", DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	go conn.Run(func([]byte) {})

	// Queue a frame and close immediately, the Deactivate pattern. The
	// frame must still reach the server before the close handshake.
	payload := map[string]string{"type": "leave_room", "room_id": "breed-7"}
	if err := conn.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}
	conn.Close()

	select {
	case <-rec.done:
	case <-time.After(3 * time.Second):
		t.Fatalf("server never saw the connection end")
	}

	frames := rec.received()
	if len(frames) != 1 {
		t.Fatalf("expected the queued frame to be delivered, got %d frames", len(frames))
	}
	var got map[string]string
	if err := json.Unmarshal(frames[0], &got); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if got["type"] != "leave_room" || got["room_id"] != "breed-7" {
		t.Fatalf("unexpected frame: %v", got)
	}

	rec.mu.Lock()
	closeErr := rec.closeErr
	rec.mu.Unlock()
	if !websocket.IsCloseError(closeErr, websocket.CloseNormalClosure) {
		t.Fatalf("expected a normal close handshake, got %v", closeErr)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	rec := newWSRecorder()
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(context.Background(), url, "", DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	go conn.Run(func([]byte) {})

	conn.Close()
	conn.Close()
	<-rec.done
}
