package chat

import (
	"slices"
	"sync"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/remote"
)

// PresenceChanged is the payload of bus.KindPresenceChanged.
type PresenceChanged struct {
	Online []string
}

// List is the conversation list with unread counters and presence.
type List struct {
	session *auth.Session
	bus     *bus.Bus

	mu     sync.Mutex
	convs  []remote.Conversation
	open   string
	online map[string]struct{}
}

// NewList creates an empty list. session supplies the signed-in user id.
func NewList(session *auth.Session, b *bus.Bus) *List {
	return &List{session: session, bus: b, online: map[string]struct{}{}}
}

// Load replaces the list with a fresh server snapshot.
func (l *List) Load(convs []remote.Conversation) {
	l.mu.Lock()
	l.convs = slices.Clone(convs)
	if i := l.index(l.open); i >= 0 {
		l.convs[i].UnreadCount = 0
	}
	l.mu.Unlock()
	l.changed()
}

// Upsert inserts or replaces a single conversation.
func (l *List) Upsert(c remote.Conversation) {
	l.mu.Lock()
	if i := l.index(c.ID); i >= 0 {
		l.convs[i] = c
	} else {
		l.convs = append([]remote.Conversation{c}, l.convs...)
	}
	l.mu.Unlock()
	l.changed()
}

// Remove drops a conversation from the local list.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	i := l.index(id)
	if i >= 0 {
		l.convs = slices.Delete(l.convs, i, i+1)
	}
	l.mu.Unlock()
	if i >= 0 {
		l.changed()
	}
	return i >= 0
}

// ApplyIncoming records a message for any conversation: the last-message
// snapshot and update time follow it, and the unread counter grows unless
// the conversation is open or the message is mine. Conversations not yet
// listed are added at the top.
func (l *List) ApplyIncoming(msg remote.Message) {
	me := l.me()
	convID := msg.ConversationID.ID
	if convID == "" {
		return
	}

	l.mu.Lock()
	last := &remote.LastMessage{
		ID:        msg.ID,
		Text:      msg.Text,
		Sender:    msg.Sender,
		CreatedAt: msg.CreatedAt,
	}
	unread := convID != l.open && msg.Sender.ID != me
	if i := l.index(convID); i >= 0 {
		c := &l.convs[i]
		c.LastMessage = last
		if msg.CreatedAt.After(c.UpdatedAt) {
			c.UpdatedAt = msg.CreatedAt
		}
		if unread {
			c.UnreadCount++
		}
	} else {
		c := remote.Conversation{
			ID:           convID,
			Participants: []remote.Ref{msg.Sender},
			LastMessage:  last,
			UpdatedAt:    msg.CreatedAt,
		}
		if me != "" && me != msg.Sender.ID {
			c.Participants = append(c.Participants, remote.Ref{ID: me})
		}
		if unread {
			c.UnreadCount = 1
		}
		l.convs = append([]remote.Conversation{c}, l.convs...)
	}
	l.mu.Unlock()
	l.changed()
}

// SetOpen records the conversation shown in the window and clears its
// unread counter. An empty id means none is open.
func (l *List) SetOpen(id string) {
	l.mu.Lock()
	l.open = id
	l.mu.Unlock()
	if id != "" {
		l.MarkRead(id)
	}
}

// MarkRead zeroes the unread counter of a conversation.
func (l *List) MarkRead(id string) {
	l.mu.Lock()
	i := l.index(id)
	changed := i >= 0 && l.convs[i].UnreadCount != 0
	if changed {
		l.convs[i].UnreadCount = 0
	}
	l.mu.Unlock()
	if changed {
		l.changed()
	}
}

// Get returns a copy of one conversation.
func (l *List) Get(id string) (remote.Conversation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(id); i >= 0 {
		return l.convs[i], true
	}
	return remote.Conversation{}, false
}

// Sorted returns the conversations, most recently updated first.
func (l *List) Sorted() []remote.Conversation {
	l.mu.Lock()
	out := slices.Clone(l.convs)
	l.mu.Unlock()
	slices.SortStableFunc(out, func(a, b remote.Conversation) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// TotalUnread sums the unread counters.
func (l *List) TotalUnread() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.convs {
		n += c.UnreadCount
	}
	return n
}

// SetOnline replaces the online set with a server snapshot.
func (l *List) SetOnline(ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	l.mu.Lock()
	l.online = set
	l.mu.Unlock()
	l.bus.Emit(bus.KindPresenceChanged, PresenceChanged{Online: slices.Clone(ids)})
}

// Online returns the current online set.
func (l *List) Online() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.online))
	for id := range l.online {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// UserOnline reports whether a user is in the online set.
func (l *List) UserOnline(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.online[userID]
	return ok
}

// IsOnline reports whether the other participant of a direct conversation
// is online. Groups are never shown online.
func (l *List) IsOnline(c remote.Conversation) bool {
	if c.IsGroup {
		return false
	}
	other, ok := c.Other(l.me())
	if !ok {
		return false
	}
	return l.UserOnline(other.ID)
}

// Label is the name a conversation is shown under.
func (l *List) Label(c remote.Conversation) string {
	if c.IsGroup {
		if c.GroupName != "" {
			return c.GroupName
		}
		return "Group"
	}
	other, ok := c.Other(l.me())
	if !ok {
		return "Direct Message"
	}
	return other.Name("Direct Message")
}

func (l *List) me() string {
	if l.session == nil {
		return ""
	}
	return l.session.UserID()
}

// index must be called with mu held.
func (l *List) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(l.convs, func(c remote.Conversation) bool { return c.ID == id })
}

func (l *List) changed() {
	l.bus.Emit(bus.KindConversationsChanged, nil)
}
