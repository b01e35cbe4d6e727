package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypingSetAndUnset(t *testing.T) {
	reg := NewRegistry()
	reg.Join("c1", "alice", "general")

	typing := NewTypingSet()
	typing.Set("c1", "alice", true)
	assert.Equal(t, []string{"alice"}, typing.NamesFor("general", reg))

	typing.Set("c1", "alice", false)
	assert.Empty(t, typing.NamesFor("general", reg))
}

func TestTypingNamesScopedToRoom(t *testing.T) {
	reg := NewRegistry()
	reg.Join("c1", "alice", "general")
	reg.Join("c2", "bob", "random")

	typing := NewTypingSet()
	typing.Set("c1", "alice", true)
	typing.Set("c2", "bob", true)

	assert.Equal(t, []string{"alice"}, typing.NamesFor("general", reg))
	assert.Equal(t, []string{"bob"}, typing.NamesFor("random", reg))
}

func TestTypingExcludesConnectionThatSwitchedRooms(t *testing.T) {
	reg := NewRegistry()
	reg.Join("c1", "alice", "general")

	typing := NewTypingSet()
	typing.Set("c1", "alice", true)

	// The flag was set while in general, but residency is resolved live.
	reg.SwitchRoom("c1", "dev")
	assert.Empty(t, typing.NamesFor("general", reg))
	assert.Equal(t, []string{"alice"}, typing.NamesFor("dev", reg))
}

func TestTypingExcludesDisconnectedConnection(t *testing.T) {
	reg := NewRegistry()
	reg.Join("c1", "alice", "general")

	typing := NewTypingSet()
	typing.Set("c1", "alice", true)

	reg.Leave("c1")
	assert.Empty(t, typing.NamesFor("general", reg))

	typing.Clear("c1")
	typing.Clear("c1") // idempotent
}

func TestTypingNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Join("c1", "carol", "general")
	reg.Join("c2", "alice", "general")
	reg.Join("c3", "bob", "general")

	typing := NewTypingSet()
	typing.Set("c1", "carol", true)
	typing.Set("c2", "alice", true)
	typing.Set("c3", "bob", true)

	assert.Equal(t, []string{"alice", "bob", "carol"}, typing.NamesFor("general", reg))
}
