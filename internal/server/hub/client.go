package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tailtalk/roomsync/internal/channel"
	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/pkg/log"
)

// Client is one connected engine instance on the server side. Identity is
// fixed at upgrade time from the bearer token; the current room changes with
// join/leave intents.
type Client struct {
	ID   string
	User domain.User
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.RWMutex
	roomID string
	kind   string

	cfg channel.Config
}

func NewClient(id string, user domain.User, h *Hub, conn *websocket.Conn, cfg channel.Config) *Client {
	return &Client{
		ID:   id,
		User: user,
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
	}
}

// SetRoom records the room this client is joined to, empty when none.
func (c *Client) SetRoom(roomID, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.kind = kind
}

// Room returns the client's current room and kind.
func (c *Client) Room() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.kind
}

func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.L().Warn().Err(err).Str("client_id", c.ID).Msg("websocket read error")
			}
			break
		}
		handler(c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage marshals and queues one frame, dropping it when the client's
// buffer is full.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
	}
	return nil
}
