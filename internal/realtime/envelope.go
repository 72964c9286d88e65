package realtime

import (
	"encoding/json"
	"fmt"
)

// Event names exchanged with the server.
const (
	EventRegisterUser      = "registerUser"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventGetOnlineUsers    = "getOnlineUsers"
	EventNewMessage        = "newMessage"
	EventOnlineUsers       = "onlineUsers"
)

// Envelope wraps every frame on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes data under event.
func NewEnvelope(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// ParseEnvelope decodes a frame.
func ParseEnvelope(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	if env.Event == "" {
		return nil, fmt.Errorf("frame has no event name")
	}
	return &env, nil
}
