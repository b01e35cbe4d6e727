// Package server coordinates client registration, room-scoped event fan-out,
// and connection cleanup for the Parlor chat system via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// inboundEvent pairs a decoded client frame with the connection it arrived on.
type inboundEvent struct {
	client *Client
	env    Envelope
}

// Hub manages all WebSocket client connections and dispatches inbound chat
// events. A single Run goroutine consumes registration, unregistration, and
// event channels, so every event handler runs to completion before the next
// one starts; that is what gives each room a single observable message order.
// The shared state components keep their own locks because REST handlers read
// them from HTTP goroutines.
type Hub struct {
	clients    map[*Client]bool
	byID       map[string]*Client
	register   chan *Client
	unregister chan *Client
	events     chan inboundEvent
	registry   *Registry
	history    *History
	typing     *TypingSet
	ids        *idGenerator
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates and initializes a new Hub instance with all channels and
// state components. The history is created in config-tracking mode so a
// HISTORY_LIMIT applied after package init still governs capacity.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	ids := &idGenerator{}
	return &Hub{
		clients:    make(map[*Client]bool),
		byID:       make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan inboundEvent, 256),
		registry:   NewRegistry(),
		history:    NewHistory(0, ids),
		typing:     NewTypingSet(),
		ids:        ids,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Registry exposes the connection registry for REST views and tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// History exposes the message log for REST views and tests.
func (h *Hub) History() *History {
	return h.history
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	// Check if client is still registered and not closed
	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	// Try to send the message (channel might be closed, so we need to recover from panic)
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and chat event dispatch. This method should be called in a
// separate goroutine as it runs indefinitely.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			h.byID[client.id] = client
			clientCount := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client %s connected from %s. Total clients: %d", client.id, client.addr, clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.byID, client.id)
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				// Close the channel after releasing the lock
				close(client.send)
				log.Printf("Client %s disconnected from %s. Total clients: %d", client.id, client.addr, clientCount)
				h.handleDisconnect(client)
			} else {
				h.mutex.Unlock()
			}

		case evt := <-h.events:
			h.dispatch(evt.client, evt.env)
		}
	}
}

var (
	hub     = NewHub()
	hubOnce sync.Once
)

// Publish marshals an event envelope and delivers it to every connection
// whose registry entry places it in room. Membership is resolved at send
// time, never cached by the caller.
func (h *Hub) Publish(room, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s event for room %q: %v", event, room, err)
		return
	}

	var clientsToRemove []*Client
	for _, member := range h.registry.MembersOf(room) {
		client := h.clientByID(member.ID)
		if client == nil {
			continue
		}
		if !h.safeSend(client, payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	h.removeFailedClients(clientsToRemove)
}

// sendTo delivers a single event to one client, dropping it if the client's
// buffer is full or the client is gone.
func (h *Hub) sendTo(client *Client, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s event for %s: %v", event, client.addr, err)
		return
	}
	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
	}
}

// sendToID delivers a single event to the connection registered under id.
// Absent targets are a silent no-op.
func (h *Hub) sendToID(id, event string, data any) {
	client := h.clientByID(id)
	if client == nil {
		return
	}
	h.sendTo(client, event, data)
}

func (h *Hub) clientByID(id string) *Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.byID[id]
}

// removeFailedClients removes clients whose send buffers are full and closes their channels.
// Eviction must leave no trace in presence state, so each removed client gets
// the same cleanup a normal disconnect does; by the time its read pump posts
// to unregister the client is already gone from every component.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var removed []*Client
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			delete(h.byID, client.id)
			client.closed = true
			removed = append(removed, client)
			log.Printf("Client %s removed due to full send buffer", client.id)
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, client := range removed {
		close(client.send)
	}

	for _, client := range removed {
		h.handleDisconnect(client)
	}
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	// Close all client connections
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	// Signal shutdown
	h.cancel()

	// Wait for Run() to complete
	<-h.done

	// Wait for all client goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
