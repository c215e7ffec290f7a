// Package hub fans encoded pose packets out to websocket viewers using
// the channel-based broadcast pattern: one hub goroutine owns the client
// set, per-client writer goroutines own their connections.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ekvirika/MirrorMate/internal/log"
)

// Hub maintains the set of connected viewers and broadcasts pose frames
// to all of them. Frames are pre-encoded JSON; the hub never inspects
// payload bytes.
type Hub struct {
	name string

	clients map[*Client]bool

	// Encoded frames waiting for fan-out.
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// Closed when Run exits so registration never blocks forever
	// against a stopped hub.
	done chan struct{}

	// Guards clients for ClientCount reads from outside the hub
	// goroutine.
	mu sync.RWMutex

	dropped atomic.Uint64
}

// New creates a hub. Run must be started before clients can register.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// client's send channel and returns. Call it on its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Info("hub stopped", "hub", h.name)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("viewer connected", "hub", h.name, "client", client.id, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("viewer disconnected", "hub", h.name, "client", client.id, "remaining", count)

		case frame := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Buffer full means the viewer cannot keep up
					// with the frame rate; drop it rather than
					// stalling the pipeline.
					close(client.send)
					delete(h.clients, client)
					h.dropped.Add(1)
					log.Warn("dropped slow viewer", "hub", h.name, "client", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues one encoded frame for every connected viewer.
// When the hub is saturated the frame is dropped; viewers only ever
// see the freshest state, so skipping frames is harmless.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.done:
	default:
		h.dropped.Add(1)
		log.Debug("broadcast queue full, dropping frame", "hub", h.name)
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many frames or viewers have been discarded for
// falling behind.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
