// Package server tracks ephemeral typing flags per connection. The set is
// reduced to per-room display names on demand by cross-referencing the
// registry, so a connection that switched rooms or vanished drops out of the
// list immediately without any cached room value going stale.
package server

import (
	"sort"
	"sync"
)

// TypingSet maps connection ids to the username currently composing a
// message. Entries are removed on an explicit "stopped typing" event or on
// disconnect; clients are expected to debounce their own flag after silence.
type TypingSet struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewTypingSet creates an empty typing set.
func NewTypingSet() *TypingSet {
	return &TypingSet{names: make(map[string]string)}
}

// Set records or clears the typing flag for a connection.
func (t *TypingSet) Set(id, username string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isTyping {
		t.names[id] = username
	} else {
		delete(t.names, id)
	}
}

// Clear drops any typing flag held by the connection. Safe to call for ids
// that never set one.
func (t *TypingSet) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.names, id)
}

// NamesFor returns the usernames typing in room, determined by each
// connection's current residency in the registry rather than where it was
// when the flag was set.
func (t *TypingSet) NamesFor(room string, registry *Registry) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.names))
	for id, name := range t.names {
		if conn, ok := registry.Get(id); ok && conn.Room == room {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
