package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Event types pushed to subscribers.
const (
	EventSaleCreated   = "sale.created"
	EventSaleCancelled = "sale.cancelled"
	EventSessionOpened = "session.opened"
	EventSessionClosed = "session.closed"
)

// Event is one business-scoped notification.
type Event struct {
	Type       string      `json:"type"`
	BusinessID uuid.UUID   `json:"business_id"`
	BranchID   *uuid.UUID  `json:"branch_id,omitempty"`
	Data       interface{} `json:"data"`
	Timestamp  time.Time   `json:"timestamp"`
}

type envelope struct {
	businessID uuid.UUID
	payload    []byte
}

// Client is one websocket subscriber bound to a business.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	businessID uuid.UUID
	userID     uuid.UUID
}

// Hub fans events out to the websocket clients of each business.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	upgrader   websocket.Upgrader
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub. Call Run in its own goroutine before serving clients.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Run owns the client registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[c.businessID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.businessID] = set
			}
			set[c] = struct{}{}
			h.mu.Unlock()
			log.Printf("realtime: client connected (business %s, user %s)", c.businessID, c.userID)

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[msg.businessID] {
				select {
				case c.send <- msg.payload:
				default:
					// slow consumer
					h.remove(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.businessID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.businessID)
	}
}

// Publish queues ev for every subscriber of its business. It never blocks the
// caller; events are dropped when the queue is full.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("realtime: failed to encode %s event: %v", ev.Type, err)
		return
	}
	select {
	case h.broadcast <- envelope{businessID: ev.BusinessID, payload: payload}:
	default:
		log.Printf("realtime: broadcast queue full, dropping %s event", ev.Type)
	}
}

// ClientCount returns the number of subscribers for a business.
func (h *Hub) ClientCount(businessID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[businessID])
}

// ServeWS upgrades an already authenticated request and subscribes it to the
// business's events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, businessID, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		businessID: businessID,
		userID:     userID,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}

	go c.writePump()
	go c.readPump()
	return nil
}

// readPump discards client messages and keeps the read deadline fresh.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: read error: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
