package websocket

import (
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/njeri2090/studio_booking/utils"
)

// Event names pushed to connected admin dashboards.
const (
	EventBookingCreated   = "booking_created"
	EventBookingStatus    = "booking_status"
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
	EventDeliveryCreated  = "delivery_created"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans events out to connected admin dashboard clients. Broadcasts are
// best effort; a dead connection is dropped on write failure.
type Hub struct {
	clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Broadcast is nil-safe so components constructed without a hub (tests) can
// call it unconditionally.
func (h *Hub) Broadcast(event string, data interface{}) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{Event: event, Data: data}
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			utils.ErrorLogger.Errorf("dropping dashboard client after write error: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
