package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

// ClientMessage is a frame sent by the client
type ClientMessage struct {
	Type  string `json:"type"`
	Scope string `json:"scope,omitempty"`
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.config.SendBuffer),
		logger: hub.logger,
	}
}

func (c *Client) enqueue(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message", "error", err)
		return false
	}
	return c.enqueueRaw(data)
}

// enqueueRaw queues data without blocking and reports whether it was accepted.
func (c *Client) enqueueRaw(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.config.PongWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.logger.Warn("invalid message format", "error", err)
			c.sendError("invalid message format")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

func (c *Client) handleMessage(msg *ClientMessage) {
	scope := strings.TrimSpace(msg.Scope)
	switch msg.Type {
	case MessageTypeSubscribe:
		if scope == "" {
			c.sendError("scope required for subscribe")
			return
		}
		c.subscribe(scope)

	case MessageTypeUnsubscribe:
		if scope != "" {
			c.hub.Unsubscribe(c, scope)
		}

	case MessageTypePing:
		c.enqueue(&Message{Type: MessageTypePong, Timestamp: time.Now()})

	default:
		c.logger.Debug("unknown message type", "type", msg.Type)
	}
}

func (c *Client) subscribe(scope string) {
	c.hub.Subscribe(c, scope)
	if c.hub.snapshot == nil {
		return
	}
	rows, err := c.hub.snapshot(scope)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.enqueue(&Message{
		Type:      MessageTypeStandingsUpdate,
		Scope:     scope,
		Data:      StandingsUpdate{Scope: scope, Standings: rows},
		Timestamp: time.Now(),
	})
}

func (c *Client) writePump() {
	writeWait := c.hub.config.WriteWait
	ticker := time.NewTicker((c.hub.config.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendError(errMsg string) {
	c.enqueue(&Message{
		Type:      MessageTypeError,
		Data:      map[string]string{"error": errMsg},
		Timestamp: time.Now(),
	})
}

// ServeWs upgrades the request and attaches the connection to the hub. An optional
// scope query parameter subscribes the client immediately.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn)
	h.Register(client)

	go client.writePump()
	go client.readPump()

	if scope := strings.TrimSpace(r.URL.Query().Get("scope")); scope != "" {
		client.subscribe(scope)
	}

	h.logger.Debug("new websocket connection", "client_id", client.id)
}
