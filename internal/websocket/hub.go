package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"dtindex/internal/infrastructure"
	"dtindex/pkg/contracts/events"
)

// Message is the envelope of every event sent to clients. Type is the
// update type joined with the action, e.g. "dataset:reloaded".
type Message = events.WebSocketMessage

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	totalConnections int64
	messagesSent     int64
	droppedClients   int64

	quit    chan struct{}
	running bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in a goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordWebSocketClients(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.mu.RLock()
			if h.clients[client] {
				h.sendTo(client, Message{
					Type:      events.MessageTypeConnection,
					Data:      events.Connection{Status: "connected", ClientID: client.id},
					Timestamp: time.Now().Format(time.RFC3339),
					TraceID:   client.traceID,
				})
			}
			h.mu.RUnlock()

		case client := <-h.unregister:
			h.remove(client, "closed")

		case message := <-h.broadcast:
			var slow []*Client
			h.mu.Lock()
			total := len(h.clients)
			for client := range h.clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					slow = append(slow, client)
				}
			}
			h.mu.Unlock()

			for _, client := range slow {
				h.remove(client, "send buffer full")
			}
			h.logger.Debug("Broadcast delivered",
				slog.Int("client_count", total),
				slog.Int("fail_count", len(slow)),
				slog.Int("message_size", len(message)))
		}
	}
}

// remove drops a client and closes its send channel, once
func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	if reason != "closed" {
		h.droppedClients++
	}
	h.mu.Unlock()

	ctx := client.context()
	h.metrics.RecordWebSocketClients(ctx, -1)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

// sendTo must be called with h.mu held
func (h *Hub) sendTo(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("Client buffer full, message dropped", slog.String("client_id", client.id))
	}
}

// BroadcastUpdate sends an event to every client. It implements the
// dataset service's publisher.
func (h *Hub) BroadcastUpdate(updateType, subtype, action string, data interface{}) {
	h.BroadcastUpdateWithTrace(updateType, subtype, action, data, "")
}

// BroadcastUpdateWithTrace is BroadcastUpdate with a trace ID on the message
func (h *Hub) BroadcastUpdateWithTrace(updateType, subtype, action string, data interface{}, traceID string) {
	msgType := events.MessageType(updateType)
	if action != "" {
		msgType = events.MessageType(updateType + ":" + action)
	}
	h.Broadcast(Message{
		Type:      msgType,
		Subtype:   subtype,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

// Broadcast queues a message for every client. Messages are dropped while
// the hub is stopped or its queue is full.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msg.Type)))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.quit:
	default:
		h.logger.Warn("Broadcast queue full, message dropped", slog.String("message_type", string(msg.Type)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop closes every client and ends the hub loop
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// Stats returns counters of the hub
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_clients":   h.droppedClients,
	}
}

// contextFor returns a context carrying the trace ID, if any
func contextFor(traceID string) context.Context {
	ctx := context.Background()
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}
	return ctx
}
