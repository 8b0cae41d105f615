package notify

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"bilhete/models"

	"github.com/gorilla/websocket"
)

// Notice is the cart-updated broadcast payload. Every surface that shows a
// derived cart count (navbar badge, cart modal) refreshes from these instead
// of polling or holding its own copy.
type Notice struct {
	Type      string  `json:"type"` // "cart_update"
	UserID    string  `json:"userId"`
	CartID    string  `json:"cartId,omitempty"`
	Status    string  `json:"status,omitempty"`
	ItemCount int     `json:"itemCount"`
	Total     float64 `json:"total"`
	Timestamp int64   `json:"timestamp"`
}

// Client is one connected UI surface. Conn is nil for SSE subscribers, which
// read from Send directly.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

type broadcastMsg struct {
	UserID string
	Data   []byte
}

// Hub fans cart notices out to every surface subscribed for a user.
type Hub struct {
	users      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	stop       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.users[c.UserID] == nil {
				h.users[c.UserID] = make(map[*Client]bool)
			}
			h.users[c.UserID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.users[c.UserID]; conns != nil {
				if conns[c] {
					delete(conns, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.users[m.UserID] {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.users[m.UserID], c)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for _, conns := range h.users {
				for c := range conns {
					close(c.Send)
				}
			}
			h.users = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.stop)
}

// CartUpdated publishes the derived counts of the given snapshot to every
// surface the user has open.
func (h *Hub) CartUpdated(userID string, cart models.Cart) {
	n := Notice{
		Type:      "cart_update",
		UserID:    userID,
		CartID:    cart.ID,
		Status:    cart.Status,
		ItemCount: cart.ItemCount(),
		Total:     cart.TotalPrice,
		Timestamp: time.Now().Unix(),
	}
	if n.Total == 0 {
		n.Total = cart.Total()
	}
	data, err := json.Marshal(n)
	if err != nil {
		log.Println("notify marshal:", err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{UserID: userID, Data: data}:
	case <-h.stop:
	}
}

// Subscribe registers a channel-only subscriber (used by the SSE endpoint and
// by tests). The returned cancel func must be called when the consumer goes
// away. Both directions select on stop so a subscriber racing a shutdown
// never blocks on a hub that already returned from Run.
func (h *Hub) Subscribe(userID string) (*Client, func()) {
	c := &Client{
		Send:   make(chan []byte, 16),
		UserID: userID,
	}
	select {
	case h.register <- c:
	case <-h.stop:
		close(c.Send)
		return c, func() {}
	}
	return c, func() { h.Unregister(c) }
}

// Unregister detaches a client, tolerating a hub that has already stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}
