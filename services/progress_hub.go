package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything larger is a protocol error.
	maxMessageSize = 512

	clientSendBuffer = 16
	hubBufferSize    = 256
)

type hubMessage struct {
	userID string
	data   []byte
}

// ProgressHub fans committed progress events out to every open websocket of the affected user.
// The map of clients is only written by Run.
type ProgressHub struct {
	mu         sync.RWMutex
	clients    map[string]map[*ProgressClient]bool
	register   chan *ProgressClient
	unregister chan *ProgressClient
	broadcast  chan hubMessage
	done       chan struct{}
	logger     *slog.Logger
}

var _ ProgressPublisher = (*ProgressHub)(nil)

func NewProgressHub(logger *slog.Logger) *ProgressHub {
	return &ProgressHub{
		clients:    make(map[string]map[*ProgressClient]bool),
		register:   make(chan *ProgressClient),
		unregister: make(chan *ProgressClient),
		broadcast:  make(chan hubMessage, hubBufferSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client map until ctx is cancelled, then closes every connection.
func (h *ProgressHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*ProgressClient]bool)
			}
			h.clients[c.userID][c] = true
			h.mu.Unlock()
			h.logger.Debug("progress client connected", slog.String("user_id", c.userID))

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*ProgressClient
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.remove(c)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for userID, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *ProgressHub) remove(c *ProgressClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Connected reports how many sockets userID currently has open.
func (h *ProgressHub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish never blocks the caller; events are dropped when the hub is saturated.
func (h *ProgressHub) Publish(userID string, event *ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal progress event", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- hubMessage{userID: userID, data: data}:
	default:
		h.logger.Warn("progress hub saturated, dropping event", slog.String("user_id", userID))
	}
}

// Serve attaches an upgraded connection to the hub and blocks until it closes.
func (h *ProgressHub) Serve(conn *websocket.Conn, userID string) {
	c := &ProgressClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, clientSendBuffer),
		userID: userID,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

// ProgressClient sits between one websocket and the hub.
type ProgressClient struct {
	hub    *ProgressHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *ProgressClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("progress socket closed", slog.String("user_id", c.userID), slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *ProgressClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
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
