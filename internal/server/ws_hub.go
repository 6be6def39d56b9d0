package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// allTopics subscribes a client to every topic.
const allTopics = "*"

// WSMessage is a message sent over WebSocket to clients.
type WSMessage struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// wsClient represents a single WebSocket connection.
type wsClient struct {
	conn   *websocket.Conn
	topics map[string]bool
	send   chan []byte
}

// Hub manages WebSocket clients and topic-based broadcasting. Messages are
// pushed by Publish as events happen; nothing is generated on a timer.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	stopCh     chan struct{}
	stopOnce   sync.Once
	upgrader   websocket.Upgrader
}

// NewHub creates a new Hub instance. Upgrades are accepted from the given
// origins; an empty list or "*" accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		stopCh:     make(chan struct{}),
	}
	h.upgrader = newUpgrader(allowedOrigins)
	return h
}

// Start begins the hub's run loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop shuts down the hub and disconnects all clients.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("ws client registered", "topics", client.topics)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case <-h.stopCh:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish marshals v and sends it to every client subscribed to topic.
func (h *Hub) Publish(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("ws marshal error", "topic", topic, "error", err)
		return
	}
	h.broadcast(topic, data)
}

func (h *Hub) broadcast(topic string, data json.RawMessage) {
	msg := WSMessage{
		ID:        uuid.NewString(),
		Topic:     topic,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws marshal error", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.topics[topic] || client.topics[allTopics] {
			select {
			case client.send <- payload:
			default:
				// Client too slow, drop message
			}
		}
	}
}

// ServeWS returns an HTTP handler that upgrades connections to WebSocket
// and subscribes them to the given topic.
func (h *Hub) ServeWS(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, map[string]bool{topic: true})
	}
}

// HandleWS upgrades the connection and subscribes it to the topics named
// by repeated ?topic= parameters, or to every topic when none is given.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	topics := make(map[string]bool)
	for _, t := range r.URL.Query()["topic"] {
		if t != "" {
			topics[t] = true
		}
	}
	if len(topics) == 0 {
		topics[allTopics] = true
	}
	h.serve(w, r, topics)
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, topics map[string]bool) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		topics: topics,
		send:   make(chan []byte, 64),
	}
	select {
	case h.register <- client:
	case <-h.stopCh:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// clientCount returns the number of registered clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
