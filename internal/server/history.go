// Package server keeps the bounded in-memory message history along with the
// reaction counters and read receipts attached to each message.
package server

import (
	"strings"
	"sync"
	"time"
)

// DefaultHistoryLimit is the standard message log capacity, matching the
// HISTORY_LIMIT configuration default. Once the cap is reached the oldest
// message is evicted.
const DefaultHistoryLimit = 500

// Message is one chat message as stored in the history and broadcast to
// rooms. Text and image are both optional; the server stamps everything else
// from the sending connection and never trusts those fields from the payload.
type Message struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text,omitempty"`
	Image     string         `json:"image,omitempty"`
	Sender    string         `json:"sender"`
	SenderID  string         `json:"senderId"`
	Room      string         `json:"room"`
	Timestamp time.Time      `json:"timestamp"`
	Reactions map[string]int `json:"reactions"`
	Readers   []string       `json:"readers"`
}

// MessageDraft is the client-supplied portion of a send_message payload.
type MessageDraft struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// ReadReceipt reports the full reader list of one message after a mark_read
// pass added a new reader to it.
type ReadReceipt struct {
	MsgID   int64    `json:"msgId"`
	Readers []string `json:"readers"`
}

// MessagePage is the REST pagination envelope over the history.
type MessagePage struct {
	Page     int       `json:"page"`
	Total    int       `json:"total"`
	Messages []Message `json:"messages"`
}

// idGenerator hands out unique, strictly increasing message ids. Ids are
// seeded from wall-clock milliseconds but never repeat within one process,
// even when multiple ids are requested in the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// History is the process-wide, insertion-ordered message log. Every
// connection shares the same instance, so all rooms observe one global append
// order. Mutations hold an exclusive lock; REST reads take a shared lock and
// return copies so callers never alias live reaction maps or reader slices.
type History struct {
	mu       sync.RWMutex
	messages []Message
	limit    int
	ids      *idGenerator
}

// NewHistory creates a message log bounded at limit entries. A non-positive
// limit makes the log track the HISTORY_LIMIT of the active configuration,
// re-read on every append, so capacity set after construction still applies.
func NewHistory(limit int, ids *idGenerator) *History {
	if ids == nil {
		ids = &idGenerator{}
	}
	capacity := limit
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &History{
		messages: make([]Message, 0, capacity),
		limit:    limit,
		ids:      ids,
	}
}

// Append stamps a draft with id, sender identity, room, and timestamp, stores
// it, and evicts the oldest entry if the log exceeds its capacity. The
// returned message is a copy safe to broadcast.
func (h *History) Append(draft MessageDraft, sender Connection) Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{
		ID:        h.ids.next(),
		Text:      draft.Text,
		Image:     draft.Image,
		Sender:    sender.Username,
		SenderID:  sender.ID,
		Room:      sender.Room,
		Timestamp: time.Now().UTC(),
		Reactions: make(map[string]int),
		Readers:   make([]string, 0),
	}

	limit := h.limit
	if limit <= 0 {
		limit = currentConfig().HistoryLimit
	}
	h.messages = append(h.messages, msg)
	if len(h.messages) > limit {
		h.messages = h.messages[len(h.messages)-limit:]
	}

	return cloneMessage(msg)
}

// AddReaction increments the per-emoji counter on the message with the given
// id and reports which room the message belongs to. Ids that are malformed or
// already evicted are silently ignored.
func (h *History) AddReaction(msgID int64, emoji string) (room string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.messages {
		if h.messages[i].ID == msgID {
			h.messages[i].Reactions[emoji]++
			return h.messages[i].Room, true
		}
	}
	return "", false
}

// MarkRead appends username to the reader list of every message in room that
// it has not read yet, returning one receipt per newly-read message. Repeat
// calls are idempotent; a username appears in a reader list at most once.
func (h *History) MarkRead(room, username string) []ReadReceipt {
	h.mu.Lock()
	defer h.mu.Unlock()

	var receipts []ReadReceipt
	for i := range h.messages {
		msg := &h.messages[i]
		if msg.Room != room || containsString(msg.Readers, username) {
			continue
		}
		msg.Readers = append(msg.Readers, username)
		receipts = append(receipts, ReadReceipt{
			MsgID:   msg.ID,
			Readers: append([]string(nil), msg.Readers...),
		})
	}
	return receipts
}

// Page returns one page of the history in arrival order, oldest first,
// optionally filtered to a single room. Page numbers start at 1.
func (h *History) Page(room string, page, limit int) MessagePage {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	filtered := h.filterLocked(room)
	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	out := make([]Message, 0, end-start)
	for _, msg := range filtered[start:end] {
		out = append(out, cloneMessage(msg))
	}
	return MessagePage{Page: page, Total: len(filtered), Messages: out}
}

// Search returns every message whose text contains the query,
// case-insensitively, optionally restricted to one room.
func (h *History) Search(query, room string) []Message {
	query = strings.ToLower(query)

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, 0)
	for _, msg := range h.messages {
		if room != "" && msg.Room != room {
			continue
		}
		if strings.Contains(strings.ToLower(msg.Text), query) {
			out = append(out, cloneMessage(msg))
		}
	}
	return out
}

// Len reports how many messages the log currently holds.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.messages)
}

// Oldest returns the id of the oldest retained message, or false on an empty
// log.
func (h *History) Oldest() (int64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.messages) == 0 {
		return 0, false
	}
	return h.messages[0].ID, true
}

// filterLocked returns the retained messages for room (all rooms when room is
// empty). Callers must hold at least a read lock.
func (h *History) filterLocked(room string) []Message {
	if room == "" {
		return h.messages
	}
	filtered := make([]Message, 0, len(h.messages))
	for _, msg := range h.messages {
		if msg.Room == room {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func cloneMessage(msg Message) Message {
	reactions := make(map[string]int, len(msg.Reactions))
	for emoji, count := range msg.Reactions {
		reactions[emoji] = count
	}
	msg.Reactions = reactions
	msg.Readers = append([]string(nil), msg.Readers...)
	return msg
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
