// Package sse provides Server-Sent Events support for real-time delivery of
// chat messages and announcements.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serviceconnect_backend/platform/logger"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventMessage      EventType = "chat_message"
	EventAnnouncement EventType = "announcement"
	EventJobUpdated   EventType = "job_updated"
	EventProposal     EventType = "proposal_update"
)

// Event represents an SSE event payload
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	events chan Event

	mu     sync.Mutex
	closed bool
}

// send queues the event for delivery. Reports false when the buffer is
// full. Events for a closed client are discarded silently; the channel only
// closes under the same mutex, so a send can never hit a closed channel.
func (c *client) send(event Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

// Hub manages SSE connections and per-user delivery.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	log     *logger.Logger
}

// NewHub creates a new SSE hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.userID] = append(h.clients[c.userID], c)
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[c.userID]
	for i, cl := range clients {
		if cl == c {
			h.clients[c.userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.clients[c.userID]) == 0 {
		delete(h.clients, c.userID)
	}

	c.close()
}

// Publish sends an event to every connection of one user. Slow consumers
// with a full buffer drop the event rather than block delivery.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.send(event) {
			h.log.Warn("sse event buffer full, dropping event", "user_id", userID, "type", event.Type)
		}
	}
}

// PublishToMany sends an event to each user in the list.
func (h *Hub) PublishToMany(userIDs []uuid.UUID, event Event) {
	for _, id := range userIDs {
		h.Publish(id, event)
	}
}

// Handler returns a Gin handler for SSE connections.
func (h *Hub) Handler(getUserID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID: userID,
			events: make(chan Event, 32),
		}
		h.addClient(cl)
		defer h.removeClient(cl)

		c.SSEvent("connected", gin.H{"userId": userID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close shuts down the hub and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for _, c := range clients {
			c.close()
		}
	}
	h.clients = make(map[uuid.UUID][]*client)
}
