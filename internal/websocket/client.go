package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chemviz/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 256
)

// Timing controls keepalive. PingPeriod must be shorter than PongWait.
type Timing struct {
	PingPeriod time.Duration
	PongWait   time.Duration
}

// DefaultTiming pings every 54s and waits 60s for the pong.
func DefaultTiming() Timing {
	return Timing{PingPeriod: 54 * time.Second, PongWait: 60 * time.Second}
}

func (t Timing) normalized() Timing {
	def := DefaultTiming()
	if t.PongWait <= 0 {
		t.PongWait = def.PongWait
	}
	if t.PingPeriod <= 0 || t.PingPeriod >= t.PongWait {
		t.PingPeriod = (t.PongWait * 9) / 10
	}
	return t
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub    *Hub
	conn   Connection
	send   chan []byte
	timing Timing

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient wraps conn for hub. traceID ties the client's logs to the
// upgrade request.
func NewClient(hub *Hub, conn Connection, traceID string, timing Timing, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		timing:      timing.normalized(),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: infrastructure.WithComponent(logger, "websocket.client").With(
			slog.String("client_id", id)),
	}
}

// ID returns the client identifier sent in the welcome message.
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// ReadPump drains inbound frames so pongs and close frames are processed.
// Dashboards only listen; any payload they send is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(c.context(), "unexpected websocket close",
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump forwards hub messages to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.timing.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "failed to write websocket message",
					slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "ping failed",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
