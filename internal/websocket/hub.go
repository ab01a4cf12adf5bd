package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/cache"
	"github.com/holosched/backend/internal/models"
)

// delivery is one payload addressed to one user's client.
type delivery struct {
	userID  uuid.UUID
	payload []byte
}

// Hub routes schedule-change events to the connected client of the owning
// user. Events arrive over Redis pub/sub so every server instance sees them.
// All sends on and closes of client send channels happen inside Run, so a
// delivery can never race a reconnect onto a just-closed channel.
type Hub struct {
	// Registered clients by user id, mutated only by Run
	clients map[uuid.UUID]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Deliveries from the pub/sub goroutine, consumed by Run
	deliver chan delivery

	// Redis client for pub/sub
	redis *cache.RedisClient

	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(redis *cache.RedisClient) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		redis:      redis,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.subscribeToRedis()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			log.Printf("Schedule socket connected: %s", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Schedule socket disconnected: %s", client.userID)

		case d := <-h.deliver:
			client, ok := h.clients[d.userID]
			if !ok {
				continue
			}
			select {
			case client.send <- d.payload:
			default:
				// Client's send channel is full, skip
			}
		}
	}
}

// subscribeToRedis forwards schedule events to the owning user's client
func (h *Hub) subscribeToRedis() {
	pubsub := h.redis.SubscribeScheduleEvents()
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var ev models.ScheduleEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("Dropping malformed schedule event: %v", err)
			continue
		}
		h.sendToUser(ev.StreamerID, []byte(msg.Payload))
	}
}

// sendToUser hands the payload to Run for delivery. It never touches a
// client's send channel directly.
func (h *Hub) sendToUser(userID uuid.UUID, payload []byte) {
	select {
	case h.deliver <- delivery{userID: userID, payload: payload}:
	default:
		// Hub is backed up, drop the notification
	}
}

// ConnectedUsers returns how many users currently hold an open socket
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
