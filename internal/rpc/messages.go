package rpc

import (
	"encoding/json"
	"time"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/status"
)

// Empty is the request or response of calls without arguments.
type Empty struct{}

// StatusResponse describes the daemon's session.
type StatusResponse struct {
	Session        string       `json:"session"`
	State          status.State `json:"state"`
	User           *auth.User   `json:"user,omitempty"`
	SignedIn       bool         `json:"signed_in"`
	Connected      bool         `json:"connected"`
	RateLimited    bool         `json:"rate_limited"`
	CooldownUntil  time.Time    `json:"cooldown_until,omitzero"`
	TokenExpiry    time.Time    `json:"token_expiry,omitzero"`
	ServerURL      string       `json:"server_url"`
	UptimeMs       int64        `json:"uptime_ms"`
	UnreadMessages int          `json:"unread_messages"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"id_token"`
}

// UserResponse carries the signed-in user.
type UserResponse struct {
	User *auth.User `json:"user"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type LogoutOtherSessionsResponse struct {
	Current *remote.SessionInfo `json:"current,omitempty"`
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}

type ListConversationsRequest struct {
	// Refresh reloads the list from the server first.
	Refresh bool `json:"refresh"`
}

// ConversationView is a conversation as shown in a list.
type ConversationView struct {
	remote.Conversation
	Label  string `json:"label"`
	Online bool   `json:"online"`
}

type ConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	TotalUnread   int                `json:"total_unread"`
}

type ConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ConversationResponse struct {
	Conversation ConversationView `json:"conversation"`
}

// MessagesResponse is the content of the open window.
type MessagesResponse struct {
	ConversationID string            `json:"conversation_id"`
	Conversation   *ConversationView `json:"conversation,omitempty"`
	Messages       []chat.Message    `json:"messages"`
	HasMore        bool              `json:"has_more"`
	Loading        bool              `json:"loading"`
}

type LoadOlderResponse struct {
	Added int `json:"added"`
	MessagesResponse
}

type SendTextRequest struct {
	// ConversationID is opened first when it is not the open one.
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text"`
}

type SendTextResponse struct {
	Message chat.Message `json:"message"`
}

type RetrySendRequest struct {
	ClientID string `json:"client_id"`
}

type CreateConversationRequest struct {
	UserID string `json:"user_id"`
}

type RenameGroupRequest struct {
	ConversationID string `json:"conversation_id"`
	Name           string `json:"name"`
}

type OnlineUsersResponse struct {
	UserIDs []string `json:"user_ids"`
}

type WatchEventsRequest struct {
	// Namespaces filters events by kind prefix; empty means all.
	Namespaces []string `json:"namespaces,omitempty"`
}

// EventEnvelope is one bus event streamed to a front end.
type EventEnvelope struct {
	EventID    string          `json:"event_id"`
	Session    string          `json:"session"`
	OccurredAt time.Time       `json:"occurred_at"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type CursorRequest struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type PostsPage struct {
	Posts      []remote.Post `json:"posts"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

type UsersPage struct {
	Users      []remote.Ref `json:"users"`
	NextCursor string       `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

type SearchRequest struct {
	Query string `json:"query"`
	// Kind with Cursor continues one result list: posts, users or tags.
	Kind   string `json:"kind,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

type ActivityRequest struct {
	Page int `json:"page"`
}

type FollowsRequest struct {
	UserID string            `json:"user_id"`
	Kind   remote.FollowKind `json:"kind"`
	Cursor string            `json:"cursor,omitempty"`
	Limit  int               `json:"limit,omitempty"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type PostRequest struct {
	PostID string `json:"post_id"`
	Cursor string `json:"cursor,omitempty"`
}

// ToggleResponse reports the state after a toggle.
type ToggleResponse struct {
	Active bool `json:"active"`
}

type CommentRequest struct {
	PostID string `json:"post_id"`
	Text   string `json:"text"`
}

type CommentResponse struct {
	Comment *remote.Comment `json:"comment"`
}

type CommentsPage struct {
	Comments   []remote.Comment `json:"comments"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

type ShareRequest struct {
	PostID string `json:"post_id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Target string `json:"target,omitempty"`
	QR     bool   `json:"qr,omitempty"`
}

type ShareResponse struct {
	URL    string `json:"url"`
	Intent string `json:"intent,omitempty"`
	QR     string `json:"qr,omitempty"`
}
