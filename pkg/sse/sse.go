package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Event is a server-sent event pushed to connected review clients
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type client struct {
	userID string
	ch     chan Event
}

type message struct {
	userID string // empty means broadcast to everyone
	event  Event
}

// Manager fans events out to connected SSE clients per user
type Manager struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	messages   chan message
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		messages:   make(chan message, 64),
	}
}

// Run processes register/unregister/publish events. Call in a goroutine.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.clients[c] = true
		case c := <-m.unregister:
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.ch)
			}
		case msg := <-m.messages:
			for c := range m.clients {
				if msg.userID != "" && c.userID != msg.userID {
					continue
				}
				select {
				case c.ch <- msg.event:
				default:
					// Slow client, drop the event rather than block the loop
					log.Printf("[WARN] SSE client for user %s is not keeping up, dropping event", c.userID)
				}
			}
		}
	}
}

// Publish sends an event to one user's clients, or to everyone when userID is empty
func (m *Manager) Publish(userID string, event Event) {
	m.messages <- message{userID: userID, event: event}
}

// ServeHTTP streams events to a single client connection
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	cl := &client{userID: userID, ch: make(chan Event, 16)}
	m.register <- cl
	defer func() { m.unregister <- cl }()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-cl.ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()
		}
	}
}
