// Package server tracks which connection belongs to which user and room. The
// Registry is the sole source of truth for presence; room membership is always
// derived from it rather than kept in a separate structure that could drift.
package server

import (
	"sort"
	"sync"
)

// Connection describes one live WebSocket connection: its stable id, the
// username it joined with, and the room it currently occupies.
type Connection struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

// Registry maps connection ids to Connection entries. All mutating operations
// are serialized through an internal mutex; reads take a shared lock so REST
// handlers can scan it while the hub dispatches events.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Connection)}
}

// Join registers a connection under the given username and room. Joining an
// id that is already present overwrites the previous entry; a reconnect that
// raced its own cleanup is not an error under best-effort semantics.
func (r *Registry) Join(id, username, room string) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := Connection{ID: id, Username: username, Room: room}
	r.conns[id] = conn
	return conn
}

// Get returns the connection registered under id.
func (r *Registry) Get(id string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	return conn, ok
}

// SwitchRoom atomically moves a connection to a new room and reports the room
// it left. Unknown ids are a no-op.
func (r *Registry) SwitchRoom(id, newRoom string) (oldRoom string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.conns[id]
	if !exists {
		return "", false
	}

	oldRoom = conn.Room
	conn.Room = newRoom
	r.conns[id] = conn
	return oldRoom, true
}

// Leave removes and returns the connection registered under id. Calling it on
// an id that is already gone returns ok=false and changes nothing.
func (r *Registry) Leave(id string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.conns[id]
	if !exists {
		return Connection{}, false
	}

	delete(r.conns, id)
	return conn, true
}

// MembersOf returns every connection currently resident in room, sorted by
// username for stable presence lists. Membership is recomputed by scanning
// the registry; at this scale a per-room index is not worth the bookkeeping.
func (r *Registry) MembersOf(room string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Connection, 0)
	for _, conn := range r.conns {
		if conn.Room == room {
			members = append(members, conn)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Username == members[j].Username {
			return members[i].ID < members[j].ID
		}
		return members[i].Username < members[j].Username
	})
	return members
}

// All returns every registered connection, sorted by username.
func (r *Registry) All() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].Username == conns[j].Username {
			return conns[i].ID < conns[j].ID
		}
		return conns[i].Username < conns[j].Username
	})
	return conns
}

// Len reports how many connections are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
