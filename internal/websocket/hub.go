// Package websocket streams engine events to connected clients. The hub is a
// plain subscriber of the event bus; it never mutates engine state.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/dtran/focus-rival/internal/events"
	"github.com/rs/zerolog"
)

type Hub struct {
	bus *events.Bus
	log zerolog.Logger

	register    chan *Client
	unregister  chan *Client
	deliver     chan events.Event
	stop        chan struct{}
	done        chan struct{}
	once        sync.Once
	stopped     bool
	unsubscribe func()

	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewHub(bus *events.Bus, log zerolog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		log:        log.With().Str("component", "ws_hub").Logger(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan events.Event, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	// Bus dispatch is synchronous; hand events off through a buffered channel
	// so publishers never block on slow clients.
	h.unsubscribe = h.bus.Subscribe(func(event events.Event) {
		select {
		case h.deliver <- event:
		default:
			h.log.Warn().Str("type", string(event.Type)).Msg("event dropped, delivery buffer full")
		}
	})

	for {
		select {
		case <-h.stop:
			h.unsubscribe()
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case event := <-h.deliver:
			h.broadcast(event)
		}
	}
}

// broadcast sends an event to every client listening for its owner.
func (h *Hub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(event.Type)).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.userID != event.OwnerID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Buffer full, skip
		}
	}
}

// Stop shuts the hub down and waits for Run to exit.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// Register attaches a connected client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
