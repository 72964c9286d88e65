package store

// Outbox statuses.
const (
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// OutboxEntry represents an outgoing message.
type OutboxEntry struct {
	ID             int64
	ClientMsgID    string
	ConversationID string
	Body           string
	Status         string // queued, sending, sent, failed
	ErrorMessage   string
	ServerMsgID    string
	Attempts       int
	CreatedAt      int64
	UpdatedAt      int64
}
