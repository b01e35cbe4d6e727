// Package server defines the JSON event envelope exchanged with clients and
// the payload types carried by each event.
package server

import (
	"encoding/json"
	"time"
)

// Inbound event names consumed by the hub.
const (
	EventUserJoin       = "user_join"
	EventJoinRoom       = "join_room"
	EventSendMessage    = "send_message"
	EventTyping         = "typing"
	EventPrivateMessage = "private_message"
	EventAddReaction    = "add_reaction"
	EventMarkRead       = "mark_read"
)

// Outbound event names produced by the hub.
const (
	EventSession          = "session"
	EventRoomList         = "room_list"
	EventUserList         = "user_list"
	EventUserJoined       = "user_joined"
	EventUserLeft         = "user_left"
	EventReceiveMessage   = "receive_message"
	EventMessageDelivered = "message_delivered"
	EventTypingUsers      = "typing_users"
	EventUpdateReactions  = "update_reactions"
	EventReadReceipt      = "read_receipt"
)

// Envelope is an inbound client frame: an event name plus its raw payload,
// decoded per event by the dispatcher.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outboundEnvelope mirrors Envelope for server-to-client frames, carrying an
// already-typed payload.
type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Event: event, Data: data})
}

// UserRef identifies a user in user_joined and user_left notifications.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PrivateDraft is the client payload of a private_message event.
type PrivateDraft struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// PrivateMessage is a direct message delivered to exactly the two parties; it
// is never stored in the history.
type PrivateMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsPrivate bool      `json:"isPrivate"`
}

// ReactionPayload carries both the add_reaction request and the
// update_reactions broadcast. The broadcast is a delta, not a full count;
// clients apply the same +1 rule locally.
type ReactionPayload struct {
	MsgID int64  `json:"msgId"`
	Emoji string `json:"emoji"`
}

// DeliveryAck confirms a send_message back to its sender.
type DeliveryAck struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}
