// Package events pushes state changes to websocket subscribers.
package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
)

// Message types.
const (
	TypePreload   = "preload"
	TypeSelection = "selection"
	TypeCatalog   = "catalog"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Message is the envelope written to every subscriber.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PreloadPayload reports the preload queue length.
type PreloadPayload struct {
	Length int `json:"length"`
}

// SelectionPayload reports a category selection change.
type SelectionPayload struct {
	Kind     media.Kind `json:"kind"`
	Category string     `json:"category"`
}

// CatalogPayload reports that the catalog of a kind changed.
type CatalogPayload struct {
	Kind media.Kind `json:"kind"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans messages out to connected clients. A slow client loses messages
// instead of blocking the publisher.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish marshals payload and queues it for every client.
func (h *Hub) Publish(typ string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.WithFields(log.Fields{"type": typ, "error": err}).Warn("event dropped")
		return
	}

	msg := Message{Type: typ, Payload: raw}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) Preload(length int) {
	h.Publish(TypePreload, PreloadPayload{Length: length})
}

func (h *Hub) Selection(kind media.Kind, category string) {
	h.Publish(TypeSelection, SelectionPayload{Kind: kind, Category: category})
}

func (h *Hub) Catalog(kind media.Kind) {
	h.Publish(TypeCatalog, CatalogPayload{Kind: kind})
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client. Connections arriving afterwards are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closed
}

// add registers c unless the hub is already closed.
func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request and streams messages until either side hangs up.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "event feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("error", err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	if !h.add(c) {
		// closed between the check above and the upgrade
		h.closeFrame(conn)
		return
	}
	defer h.remove(c)

	log.WithField("remote", r.RemoteAddr).Debug("events client connected")

	// Incoming frames are ignored; reading only detects the hang-up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithField("error", err).Debug("events client read")
				}
				h.remove(c)
				return
			}
		}
	}()

	for msg := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
	h.closeFrame(conn)
}

func (h *Hub) closeFrame(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}
