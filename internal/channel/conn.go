package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tailtalk/roomsync/pkg/log"
)

// Config tunes the websocket connection liveness handling.
type Config struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// DefaultConfig matches the server's expectations.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
	}
}

// Conn is one authenticated websocket connection to the push channel.
type Conn struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	flushed chan struct{}
	once    sync.Once
	cfg     Config
	logger  zerolog.Logger
}

// Dial opens the channel connection. The credential travels as a bearer
// token on the upgrade request.
func Dial(ctx context.Context, url, credential string, cfg Config, logger zerolog.Logger) (*Conn, error) {
	header := http.Header{}
	if credential != "" {
		header.Set("Authorization", "Bearer "+credential)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return &Conn{
		conn:    conn,
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Run starts the write pump and reads inbound frames, passing each to
// handler. It returns when the connection closes.
func (c *Conn) Run(handler func([]byte)) {
	go c.writePump()
	c.readPump(handler)
}

func (c *Conn) readPump(handler func([]byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("channel read error")
			}
			return
		}
		handler(message)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.flushed)
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			// Drain intents queued before Close so a leave frame still
			// reaches the server, then run the close handshake.
			for {
				select {
				case message := <-c.send:
					c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
					if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				default:
					c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
					c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

// Send marshals and queues one outbound frame. Intents are fire-and-forget:
// a full buffer or a closed connection drops the frame rather than blocking.
func (c *Conn) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
	case <-c.done:
		c.logger.Debug().Str(log.FieldEvent, "send").Msg("frame dropped, connection closed")
	default:
		c.logger.Debug().Str(log.FieldEvent, "send").Msg("frame dropped, send buffer full")
	}
	return nil
}

// Close tears the connection down, waiting briefly for the write pump to
// flush queued frames. Safe to call more than once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
		select {
		case <-c.flushed:
		case <-time.After(c.cfg.WriteWait):
			c.conn.Close()
		}
	})
	return nil
}
