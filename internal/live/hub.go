// Package live pushes standings to websocket subscribers as matches change.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"unostat-app/internal/config"
	"unostat-app/internal/standings"
)

// Message types
const (
	MessageTypeStandingsUpdate = "standings_update"
	MessageTypeSubscribe       = "subscribe"
	MessageTypeUnsubscribe     = "unsubscribe"
	MessageTypeSubscribed      = "subscribed"
	MessageTypeUnsubscribed    = "unsubscribed"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
	MessageTypeError           = "error"
)

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Scope     string      `json:"scope,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// StandingsUpdate carries the full standings of a scope.
type StandingsUpdate struct {
	Scope     string               `json:"scope"`
	Standings []standings.Standing `json:"standings"`
}

// SnapshotFunc returns the current standings of a scope.
type SnapshotFunc func(scope string) ([]standings.Standing, error)

// Hub tracks connected clients and their scope subscriptions. A scope is a season ID or
// "all".
type Hub struct {
	scopes      map[string]map[*Client]bool
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	mu          sync.RWMutex
	snapshot    SnapshotFunc
	config      config.LiveConfig
	logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriptionRequest struct {
	client *Client
	scope  string
}

func NewHub(cfg config.LiveConfig, logger *slog.Logger) *Hub {
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		scopes:      make(map[string]map[*Client]bool),
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		config:      cfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetSnapshot makes new subscribers receive the current standings right away.
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.snapshot = fn
}

// Run processes hub events until Stop is called
func (h *Hub) Run() {
	h.logger.Info("live standings hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("live standings hub stopping")
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropLocked(client)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if !h.clients[req.client] {
				h.mu.Unlock()
				continue
			}
			if _, ok := h.scopes[req.scope]; !ok {
				h.scopes[req.scope] = make(map[*Client]bool)
			}
			h.scopes[req.scope][req.client] = true
			h.mu.Unlock()
			req.client.enqueue(&Message{Type: MessageTypeSubscribed, Scope: req.scope, Timestamp: time.Now()})
			h.logger.Debug("client subscribed", "client_id", req.client.id, "scope", req.scope)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.scopes[req.scope]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.scopes, req.scope)
				}
			}
			h.mu.Unlock()
			req.client.enqueue(&Message{Type: MessageTypeUnsubscribed, Scope: req.scope, Timestamp: time.Now()})
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "scope", req.scope)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub and disconnects every client
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	for scope, clients := range h.scopes {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.scopes, scope)
			}
		}
	}
	client.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.dropLocked(client)
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	for client := range h.scopes[message.Scope] {
		if !client.enqueueRaw(data) {
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastStandings sends the standings of scope to its subscribers
func (h *Hub) BroadcastStandings(scope string, rows []standings.Standing) {
	message := &Message{
		Type:      MessageTypeStandingsUpdate,
		Scope:     scope,
		Data:      StandingsUpdate{Scope: scope, Standings: rows},
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "scope", scope)
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Subscribe(client *Client, scope string) {
	select {
	case h.subscribe <- &subscriptionRequest{client: client, scope: scope}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unsubscribe(client *Client, scope string) {
	select {
	case h.unsubscribe <- &subscriptionRequest{client: client, scope: scope}:
	case <-h.ctx.Done():
	}
}

// SubscriberCount returns the number of subscribers of scope
func (h *Hub) SubscriberCount(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[scope])
}

// ConnectionCount returns the number of connected clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
