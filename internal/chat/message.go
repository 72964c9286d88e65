// Package chat reconciles the open conversation and the conversation list
// against optimistic local sends and server pushes.
package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yovo-social/yovo/internal/remote"
)

// TempPrefix marks client-assigned ids of messages the server has not
// confirmed yet.
const TempPrefix = "tmp-"

var (
	ErrNoConversation = errors.New("no conversation open")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNotFailed      = errors.New("message is not in failed state")
	ErrUnknownMessage = errors.New("unknown message")
	// ErrStale is returned when a response arrived after the conversation
	// it was fetched for was closed or replaced.
	ErrStale = errors.New("conversation changed before the response arrived")
)

// DeliveryState is the lifecycle of a message in the window.
type DeliveryState string

const (
	Pending   DeliveryState = "pending"
	Failed    DeliveryState = "failed"
	Confirmed DeliveryState = "confirmed"
)

// Message is a message as held by the open window.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Sender         remote.Ref    `json:"sender"`
	Text           string        `json:"text"`
	CreatedAt      time.Time     `json:"created_at"`
	State          DeliveryState `json:"state"`
	Error          string        `json:"error,omitempty"`
}

// Optimistic reports whether the message still awaits server confirmation.
func (m Message) Optimistic() bool { return m.State != Confirmed }

// NewTempID returns a fresh client-side message id.
func NewTempID() string {
	return TempPrefix + uuid.NewString()
}

// IsTempID reports whether id was assigned by the client.
func IsTempID(id string) bool { return strings.HasPrefix(id, TempPrefix) }

// FromRemote converts a server message into a confirmed window entry.
func FromRemote(m remote.Message) Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID.ID,
		Sender:         m.Sender,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
		State:          Confirmed,
	}
}

// matches reports whether an optimistic entry is reconciled by msg.
func (m Message) matches(msg remote.Message) bool {
	return m.Optimistic() && m.Sender.ID == msg.Sender.ID && m.Text == msg.Text
}
