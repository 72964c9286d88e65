package bus

import "time"

// Event kinds. Subscribers filter by namespace prefix ("session.", "rt.",
// "chat.", "outbox.").
const (
	KindStatusChanged = "session.status_changed"
	KindLoggedOut     = "session.logged_out"
	KindRateLimited   = "session.rate_limited"

	KindRTConnected    = "rt.connected"
	KindRTDisconnected = "rt.disconnected"
	KindRTNewMessage   = "rt.new_message"
	KindRTOnlineUsers  = "rt.online_users"

	KindMessagesChanged      = "chat.messages_changed"
	KindConversationsChanged = "chat.conversations_changed"
	KindPresenceChanged      = "chat.presence_changed"

	KindSendAck    = "outbox.send_ack"
	KindSendFailed = "outbox.send_failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
