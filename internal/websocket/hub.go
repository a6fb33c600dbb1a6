package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"chemviz/internal/infrastructure"
)

// Message types pushed to dashboards
const (
	TypeConnection      = "connection"
	TypeDatasetUploaded = "dataset:uploaded"
)

// broadcastQueue bounds pending broadcasts; Broadcast drops when it is full.
const broadcastQueue = 64

// Event is the envelope of every message sent to clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// clients is owned by the run loop; mu only guards reads from ClientCount.
	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	quit     chan struct{}
	done     chan struct{}
	running  bool
	stopped  bool
	stateMu  sync.Mutex
	stopOnce sync.Once
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the run loop. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if h.running || h.stopped {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and waits for the run loop to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.stateMu.Lock()
		wasRunning := h.running
		h.running = false
		h.stopped = true
		h.stateMu.Unlock()

		close(h.quit)
		if wasRunning {
			<-h.done
		}
	})
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.addClients(1)

			ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			welcome, err := encodeEvent(ctx, TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			})
			if err == nil {
				select {
				case client.send <- welcome:
				default:
					h.logger.WarnContext(ctx, "client buffer full, welcome message dropped",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				h.drop(client)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.logger.Info("client unregistered",
					slog.String("client_id", client.id),
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			sent, dropped := 0, 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					h.drop(client)
					dropped++
				}
			}
			h.mu.Unlock()

			h.logger.Debug("broadcast delivered",
				slog.Int("sent", sent),
				slog.Int("message_size", len(message)))
			if dropped > 0 {
				h.logger.Warn("slow clients disconnected during broadcast",
					slog.Int("dropped", dropped))
			}
		}
	}
}

// drop removes client and closes its send channel. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.addClients(-1)
}

func (h *Hub) addClients(delta int64) {
	if h.metrics == nil {
		return
	}
	h.metrics.WebSocketClients.Add(context.Background(), delta)
}

// Register adds a client to the hub. It is a no-op once the hub is stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast queues an event for every connected client. The trace id of ctx
// is attached to the envelope. Events are dropped when the queue is full so
// callers never block on slow dashboards.
func (h *Hub) Broadcast(ctx context.Context, eventType string, data interface{}) {
	message, err := encodeEvent(ctx, eventType, data)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode event",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.WarnContext(ctx, "broadcast queue full, event dropped",
			slog.String("type", eventType))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encodeEvent(ctx context.Context, eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
}
