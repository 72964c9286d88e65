package remote

import (
	"context"
	"net/url"
	"strconv"
)

// DefaultMessagePage is the chat history page size.
const DefaultMessagePage = 20

// MessageQuery selects a page of history. Before is the oldest id already
// held; empty fetches the most recent page.
type MessageQuery struct {
	Before string
	Limit  int
}

// Conversations lists the signed-in user's visible conversations.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.get(ctx, "/api/chat/", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// Conversation fetches one conversation with populated participants.
func (c *Client) Conversation(ctx context.Context, id string) (*Conversation, error) {
	var out struct {
		Conversation *Conversation `json:"conversation"`
	}
	if err := c.get(ctx, "/api/chat/"+url.PathEscape(id)+"/convo", nil, &out); err != nil {
		return nil, err
	}
	if out.Conversation == nil {
		return nil, &APIError{Method: "GET", Path: "/api/chat/" + id + "/convo", Status: 404, Message: "conversation not found"}
	}
	return out.Conversation, nil
}

// Messages fetches one page of history for a conversation.
func (c *Client) Messages(ctx context.Context, conversationID string, q MessageQuery) ([]Message, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultMessagePage
	}
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if q.Before != "" {
		params.Set("before", q.Before)
	}
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.get(ctx, "/api/chat/"+url.PathEscape(conversationID), params, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage persists a message and returns the server copy.
func (c *Client) SendMessage(ctx context.Context, conversationID, text string) (*Message, error) {
	body := map[string]string{"text": text, "conversationId": conversationID}
	var out struct {
		Message *Message `json:"message"`
	}
	if err := c.post(ctx, "/api/chat/send-message", body, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

// MarkRead resets the server-side unread counter of a conversation.
func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	return c.post(ctx, "/api/chat/"+url.PathEscape(conversationID)+"/mark-as-read", nil, nil)
}

// CreateConversation opens (or returns the existing) direct conversation
// with userID.
func (c *Client) CreateConversation(ctx context.Context, userID string) (*Conversation, error) {
	var out struct {
		Conversation *Conversation `json:"conversation"`
	}
	if err := c.post(ctx, "/api/chat/conversation", map[string]string{"userId": userID}, &out); err != nil {
		return nil, err
	}
	return out.Conversation, nil
}

// HideConversation hides a conversation from the list server-side.
func (c *Client) HideConversation(ctx context.Context, conversationID string) error {
	return c.post(ctx, "/api/chat/conversation/hide", map[string]string{"conversationId": conversationID}, nil)
}

// UnhideConversation reverses HideConversation.
func (c *Client) UnhideConversation(ctx context.Context, conversationID string) error {
	return c.post(ctx, "/api/chat/conversation/unhide", map[string]string{"conversationId": conversationID}, nil)
}

// RenameGroup sets a group's display name.
func (c *Client) RenameGroup(ctx context.Context, conversationID, name string) error {
	return c.post(ctx, "/api/chat/group/rename", map[string]string{"conversationId": conversationID, "name": name}, nil)
}

// LeaveGroup removes the signed-in user from a group.
func (c *Client) LeaveGroup(ctx context.Context, conversationID string) error {
	body := map[string]string{"conversationId": conversationID, "userId": c.session.UserID()}
	return c.post(ctx, "/api/chat/group/leave", body, nil)
}

// DeleteGroup deletes a group the signed-in user administers.
func (c *Client) DeleteGroup(ctx context.Context, conversationID string) error {
	body := map[string]string{"conversationId": conversationID, "userId": c.session.UserID()}
	return c.post(ctx, "/api/chat/group/delete", body, nil)
}
