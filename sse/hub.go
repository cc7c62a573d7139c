package sse

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
)

const clientBuffer = 256

// Client is one connected SSE subscriber.
type Client struct {
	id     string
	topic  string
	frames chan Frame
}

// NewClient creates a client with ID "<topic>:<suffix>".
func NewClient(topic, suffix string) *Client {
	return &Client{
		id:     topic + ":" + suffix,
		topic:  topic,
		frames: make(chan Frame, clientBuffer),
	}
}

// ID returns the client identifier matched by publish patterns.
func (c *Client) ID() string { return c.id }

// Topic returns the topic the client subscribed to.
func (c *Client) Topic() string { return c.topic }

// Frames returns the channel of queued events.
func (c *Client) Frames() <-chan Frame { return c.frames }

// Send queues a frame. It returns false, dropping the frame, when the
// client is not keeping up.
func (c *Client) Send(f Frame) bool {
	select {
	case c.frames <- f:
		return true
	default:
		logger.WithComponent("sse").Warn("client buffer full, dropping event", logger.Fields(
			"client_id", c.id,
			"event", f.Event,
		))
		return false
	}
}

type message struct {
	pattern string
	frame   Frame
}

// Hub tracks clients and fans published events out to them.
// All mutations of the client set happen on the Run goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, clientBuffer),
		done:       make(chan struct{}),
		log:        logger.WithComponent("sse"),
	}
}

// Run processes registrations and broadcasts until ctx is done or Stop is
// called. All clients are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "total_clients", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.frames)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "total_clients", total))

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Stop makes Run return. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its frame channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for every client whose ID matches pattern.
// Events published after Stop are discarded.
func (h *Hub) Publish(pattern, event string, data []byte) {
	select {
	case h.broadcast <- message{pattern: pattern, frame: Frame{Event: event, Data: data}}:
	case <-h.done:
	}
}

func (h *Hub) fanOut(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, c := range h.clients {
		matched, err := filepath.Match(msg.pattern, id)
		if err != nil {
			h.log.Error("bad publish pattern", logger.Fields("pattern", msg.pattern, "error", err.Error()))
			return
		}
		if matched && c.Send(msg.frame) {
			delivered++
		}
	}
	h.log.Debug("event published", logger.Fields(
		"pattern", msg.pattern,
		"event", msg.frame.Event,
		"delivered", delivered,
	))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.frames)
		delete(h.clients, id)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ Broadcaster = (*Hub)(nil)
