// Package server maps inbound chat events onto the registry, history, and
// typing state, then fans the results out to the affected rooms. Every
// handler follows the same discipline: mutate shared state first, broadcast
// only after the mutation is complete, and silently drop events that arrive
// from a connection the registry does not know.
package server

import (
	"encoding/json"
	"log"
	"time"
)

// dispatch decodes and routes one inbound event. Malformed payloads and
// unknown event names are logged and ignored; no error is ever sent back over
// the event channel.
func (h *Hub) dispatch(c *Client, env Envelope) {
	// Everything except user_join requires a registered connection.
	if env.Event != EventUserJoin {
		if _, ok := h.registry.Get(c.id); !ok {
			return
		}
	}

	switch env.Event {
	case EventUserJoin:
		var username string
		if err := json.Unmarshal(env.Data, &username); err != nil {
			log.Printf("Invalid user_join payload from %s: %v", c.addr, err)
			return
		}
		h.handleUserJoin(c, username)

	case EventJoinRoom:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil {
			log.Printf("Invalid join_room payload from %s: %v", c.addr, err)
			return
		}
		h.handleJoinRoom(c, room)

	case EventSendMessage:
		var draft MessageDraft
		if err := json.Unmarshal(env.Data, &draft); err != nil {
			log.Printf("Invalid send_message payload from %s: %v", c.addr, err)
			return
		}
		h.handleSendMessage(c, draft)

	case EventTyping:
		var isTyping bool
		if err := json.Unmarshal(env.Data, &isTyping); err != nil {
			log.Printf("Invalid typing payload from %s: %v", c.addr, err)
			return
		}
		h.handleTyping(c, isTyping)

	case EventPrivateMessage:
		var draft PrivateDraft
		if err := json.Unmarshal(env.Data, &draft); err != nil {
			log.Printf("Invalid private_message payload from %s: %v", c.addr, err)
			return
		}
		h.handlePrivateMessage(c, draft)

	case EventAddReaction:
		var payload ReactionPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Printf("Invalid add_reaction payload from %s: %v", c.addr, err)
			return
		}
		h.handleAddReaction(payload)

	case EventMarkRead:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil {
			log.Printf("Invalid mark_read payload from %s: %v", c.addr, err)
			return
		}
		h.handleMarkRead(c, room)

	default:
		log.Printf("Ignoring unknown event %q from %s", env.Event, c.addr)
	}
}

// handleUserJoin registers the connection in the default room, tells it who
// it is and which rooms exist, and announces it to the room. Joining an id
// that is somehow still registered overwrites the stale entry.
func (h *Hub) handleUserJoin(c *Client, username string) {
	cfg := currentConfig()
	conn := h.registry.Join(c.id, username, cfg.DefaultRoom)

	h.sendTo(c, EventSession, conn)
	// The room list is advertised once at join time and is independent of
	// current membership; empty rooms stay selectable.
	h.sendTo(c, EventRoomList, cfg.Rooms)

	h.Publish(conn.Room, EventUserList, h.registry.MembersOf(conn.Room))
	h.Publish(conn.Room, EventUserJoined, UserRef{ID: conn.ID, Username: conn.Username})

	log.Printf("%s joined room %q", username, conn.Room)
}

// handleJoinRoom moves the connection between rooms. Both sides of the switch
// get a fresh member list; only the new room is told someone arrived.
func (h *Hub) handleJoinRoom(c *Client, newRoom string) {
	oldRoom, ok := h.registry.SwitchRoom(c.id, newRoom)
	if !ok {
		return
	}
	conn, ok := h.registry.Get(c.id)
	if !ok {
		return
	}

	h.Publish(oldRoom, EventUserList, h.registry.MembersOf(oldRoom))
	h.Publish(newRoom, EventUserList, h.registry.MembersOf(newRoom))
	h.Publish(newRoom, EventUserJoined, UserRef{ID: conn.ID, Username: conn.Username})

	log.Printf("%s switched from %q to %q", conn.Username, oldRoom, newRoom)
}

// handleSendMessage appends the draft to the shared history and broadcasts
// the stamped message to the sender's room, then acks the sender. Sender
// identity and room always come from the registry, never the payload.
func (h *Hub) handleSendMessage(c *Client, draft MessageDraft) {
	sender, ok := h.registry.Get(c.id)
	if !ok {
		return
	}

	msg := h.history.Append(draft, sender)
	h.Publish(sender.Room, EventReceiveMessage, msg)
	h.sendTo(c, EventMessageDelivered, DeliveryAck{Status: "delivered", ID: msg.ID})
}

// handleTyping updates the connection's typing flag and broadcasts the
// reduced name list for its current room.
func (h *Hub) handleTyping(c *Client, isTyping bool) {
	conn, ok := h.registry.Get(c.id)
	if !ok {
		return
	}

	h.typing.Set(c.id, conn.Username, isTyping)
	h.Publish(conn.Room, EventTypingUsers, h.typing.NamesFor(conn.Room, h.registry))
}

// handlePrivateMessage routes a direct message to the target connection and
// always echoes it back to the sender so one client can render the whole
// thread. Delivery to an absent target is a no-op.
func (h *Hub) handlePrivateMessage(c *Client, draft PrivateDraft) {
	sender, ok := h.registry.Get(c.id)
	if !ok {
		return
	}

	pm := PrivateMessage{
		ID:        h.ids.next(),
		Sender:    sender.Username,
		SenderID:  sender.ID,
		Message:   draft.Message,
		Timestamp: time.Now().UTC(),
		IsPrivate: true,
	}

	if draft.To != c.id {
		h.sendToID(draft.To, EventPrivateMessage, pm)
	}
	h.sendTo(c, EventPrivateMessage, pm)
}

// handleAddReaction increments the counter on the target message and tells
// the message's room which emoji moved. Evicted or bogus ids are ignored.
func (h *Hub) handleAddReaction(payload ReactionPayload) {
	room, ok := h.history.AddReaction(payload.MsgID, payload.Emoji)
	if !ok {
		return
	}
	h.Publish(room, EventUpdateReactions, payload)
}

// handleMarkRead adds the caller to the reader list of every room message it
// has not read yet and broadcasts one receipt per newly-read message.
func (h *Hub) handleMarkRead(c *Client, room string) {
	conn, ok := h.registry.Get(c.id)
	if !ok {
		return
	}

	for _, receipt := range h.history.MarkRead(room, conn.Username) {
		h.Publish(room, EventReadReceipt, receipt)
	}
}

// handleDisconnect performs the full cleanup for a vanished connection:
// registry removal, typing flag removal, then user_left, user_list, and
// typing_users broadcasts to the vacated room. Each step tolerates the
// connection already being gone.
func (h *Hub) handleDisconnect(c *Client) {
	conn, wasRegistered := h.registry.Leave(c.id)
	h.typing.Clear(c.id)
	if !wasRegistered {
		return
	}

	h.Publish(conn.Room, EventUserLeft, UserRef{ID: conn.ID, Username: conn.Username})
	h.Publish(conn.Room, EventUserList, h.registry.MembersOf(conn.Room))
	h.Publish(conn.Room, EventTypingUsers, h.typing.NamesFor(conn.Room, h.registry))

	log.Printf("%s left room %q", conn.Username, conn.Room)
}
