package chat

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/paging"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/store"
)

// Backend is the slice of the API the window reads from.
type Backend interface {
	Messages(ctx context.Context, conversationID string, q remote.MessageQuery) ([]remote.Message, error)
	Conversation(ctx context.Context, id string) (*remote.Conversation, error)
	MarkRead(ctx context.Context, conversationID string) error
}

// Rooms subscribes the realtime channel to a conversation.
type Rooms interface {
	Join(conversationID string)
	Leave(conversationID string)
}

// Outbox persists sends durably and delivers them in the background.
// Enqueueing an id that is already known puts it back in the queue.
type Outbox interface {
	Enqueue(ctx context.Context, clientID, conversationID, text string) error
}

// FailedSends is implemented by outboxes that keep undelivered sends across
// restarts. Open restores them into the window so they can be retried.
type FailedSends interface {
	Failed(conversationID string) ([]store.OutboxEntry, error)
}

// MessagesChanged is the payload of bus.KindMessagesChanged.
type MessagesChanged struct {
	ConversationID string
}

// Window holds the messages of the one open conversation.
//
// Every Open and Close bumps a generation counter and cancels the scope of
// the previous conversation; responses fetched under an older generation
// are dropped instead of applied.
type Window struct {
	backend  Backend
	rooms    Rooms
	outbox   Outbox
	session  *auth.Session
	bus      *bus.Bus
	log      *zap.Logger
	pageSize int

	mu           sync.Mutex
	gen          uint64
	scope        context.Context
	cancel       context.CancelFunc
	id           string
	conversation *remote.Conversation
	messages     []Message
	hasMore      bool
	loading      bool
}

// NewWindow creates a closed window. rooms and outbox may be nil in tests.
func NewWindow(backend Backend, rooms Rooms, outbox Outbox, session *auth.Session, b *bus.Bus, pageSize int, log *zap.Logger) *Window {
	if pageSize <= 0 {
		pageSize = remote.DefaultMessagePage
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Window{
		backend:  backend,
		rooms:    rooms,
		outbox:   outbox,
		session:  session,
		bus:      b,
		log:      log,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// Open switches to conversation id: the previous conversation's messages
// are cleared and its requests cancelled before the newest page is
// fetched. The conversation is marked read and its room joined.
func (w *Window) Open(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoConversation
	}

	w.mu.Lock()
	prev := w.id
	gen := w.reset(id)
	scope := w.scope
	w.mu.Unlock()

	if w.rooms != nil {
		if prev != "" && prev != id {
			w.rooms.Leave(prev)
		}
		w.rooms.Join(id)
	}
	w.changed(id)

	fctx, cancel := bind(scope, ctx)
	defer cancel()

	var (
		page []remote.Message
		conv *remote.Conversation
	)
	g, gctx := errgroup.WithContext(fctx)
	g.Go(func() error {
		var err error
		page, err = w.backend.Messages(gctx, id, remote.MessageQuery{Limit: w.pageSize})
		return err
	})
	g.Go(func() error {
		c, err := w.backend.Conversation(fctx, id)
		if err != nil {
			w.log.Warn("load conversation header", zap.String("conversation", id), zap.Error(err))
			return nil
		}
		conv = c
		return nil
	})
	g.Go(func() error {
		if err := w.backend.MarkRead(fctx, id); err != nil {
			w.log.Warn("mark as read", zap.String("conversation", id), zap.Error(err))
		}
		return nil
	})
	err := g.Wait()
	restored := w.restoreFailed(id)

	w.mu.Lock()
	if w.gen != gen {
		w.mu.Unlock()
		return ErrStale
	}
	w.loading = false
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.conversation = conv
	// Sends and pushes that arrived while the page was loading stay at the
	// tail unless the page already holds them.
	local := w.messages
	w.messages = make([]Message, 0, len(page)+len(restored)+len(local))
	seen := make(map[string]struct{}, len(page)+len(restored)+len(local))
	keep := func(m Message) {
		if _, dup := seen[m.ID]; dup {
			return
		}
		seen[m.ID] = struct{}{}
		w.messages = append(w.messages, m)
	}
	for _, m := range chronological(page) {
		keep(FromRemote(m))
	}
	for _, m := range restored {
		if !slices.ContainsFunc(local, func(l Message) bool { return l.ID == m.ID }) {
			keep(m)
		}
	}
	for _, m := range local {
		keep(m)
	}
	w.hasMore = !paging.Exhausted(len(page), w.pageSize)
	w.mu.Unlock()

	w.changed(id)
	return nil
}

func (w *Window) restoreFailed(id string) []Message {
	src, ok := w.outbox.(FailedSends)
	if !ok {
		return nil
	}
	entries, err := src.Failed(id)
	if err != nil {
		w.log.Warn("load failed sends", zap.String("conversation", id), zap.Error(err))
		return nil
	}
	sender := remote.UserRef(w.session.User())
	if sender.ID == "" {
		sender.ID = w.session.UserID()
	}
	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, Message{
			ID:             e.ClientMsgID,
			ConversationID: e.ConversationID,
			Sender:         sender,
			Text:           e.Body,
			CreatedAt:      time.UnixMilli(e.CreatedAt),
			State:          Failed,
			Error:          e.ErrorMessage,
		})
	}
	return msgs
}

// Close clears the window, cancels its requests and leaves the room.
func (w *Window) Close() {
	w.mu.Lock()
	prev := w.id
	w.reset("")
	w.mu.Unlock()

	if prev == "" {
		return
	}
	if w.rooms != nil {
		w.rooms.Leave(prev)
	}
	w.changed(prev)
}

// reset must be called with mu held.
func (w *Window) reset(id string) uint64 {
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	w.id = id
	w.conversation = nil
	w.messages = nil
	w.hasMore = true
	w.loading = id != ""
	w.scope, w.cancel = context.WithCancel(context.Background())
	return w.gen
}

// LoadOlder prepends the page preceding the oldest confirmed message and
// returns how many messages were added. It is a no-op once a short page
// has been seen.
func (w *Window) LoadOlder(ctx context.Context) (int, error) {
	w.mu.Lock()
	if w.id == "" {
		w.mu.Unlock()
		return 0, ErrNoConversation
	}
	if !w.hasMore || w.loading {
		w.mu.Unlock()
		return 0, nil
	}
	before := ""
	for _, m := range w.messages {
		if m.State == Confirmed {
			before = m.ID
			break
		}
	}
	if before == "" {
		w.mu.Unlock()
		return 0, nil
	}
	id, gen, scope := w.id, w.gen, w.scope
	w.loading = true
	w.mu.Unlock()

	fctx, cancel := bind(scope, ctx)
	defer cancel()
	page, err := w.backend.Messages(fctx, id, remote.MessageQuery{Before: before, Limit: w.pageSize})

	w.mu.Lock()
	if w.gen != gen {
		w.mu.Unlock()
		return 0, ErrStale
	}
	w.loading = false
	if err != nil {
		w.mu.Unlock()
		return 0, err
	}
	held := make(map[string]struct{}, len(w.messages))
	for _, m := range w.messages {
		held[m.ID] = struct{}{}
	}
	older := make([]Message, 0, len(page))
	for _, m := range chronological(page) {
		if _, dup := held[m.ID]; !dup {
			older = append(older, FromRemote(m))
		}
	}
	w.messages = append(older, w.messages...)
	w.hasMore = !paging.Exhausted(len(page), w.pageSize)
	w.mu.Unlock()

	w.changed(id)
	return len(older), nil
}

// Send appends an optimistic message and hands it to the outbox. The
// returned message is pending; if the outbox refuses it, it is failed.
func (w *Window) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	w.mu.Lock()
	if w.id == "" {
		w.mu.Unlock()
		return Message{}, ErrNoConversation
	}
	msg := Message{
		ID:             NewTempID(),
		ConversationID: w.id,
		Sender:         remote.UserRef(w.session.User()),
		Text:           text,
		CreatedAt:      time.Now(),
		State:          Pending,
	}
	if msg.Sender.ID == "" {
		msg.Sender.ID = w.session.UserID()
	}
	w.messages = append(w.messages, msg)
	w.mu.Unlock()
	w.changed(msg.ConversationID)

	if w.outbox == nil {
		return msg, nil
	}
	if err := w.outbox.Enqueue(ctx, msg.ID, msg.ConversationID, text); err != nil {
		w.MarkFailed(msg.ID, err.Error())
		msg.State, msg.Error = Failed, err.Error()
		return msg, err
	}
	return msg, nil
}

// Retry puts a failed message back to pending and re-queues it.
func (w *Window) Retry(ctx context.Context, clientID string) error {
	w.mu.Lock()
	i := w.index(clientID)
	if i < 0 {
		w.mu.Unlock()
		return ErrUnknownMessage
	}
	if w.messages[i].State != Failed {
		w.mu.Unlock()
		return ErrNotFailed
	}
	w.messages[i].State = Pending
	w.messages[i].Error = ""
	msg := w.messages[i]
	w.mu.Unlock()
	w.changed(msg.ConversationID)

	if w.outbox == nil {
		return nil
	}
	if err := w.outbox.Enqueue(ctx, clientID, msg.ConversationID, msg.Text); err != nil {
		w.MarkFailed(clientID, err.Error())
		return err
	}
	return nil
}

// MarkFailed flags an optimistic message as failed. Unknown or already
// confirmed ids are ignored.
func (w *Window) MarkFailed(clientID, reason string) bool {
	w.mu.Lock()
	i := w.index(clientID)
	if i < 0 || w.messages[i].State == Confirmed {
		w.mu.Unlock()
		return false
	}
	w.messages[i].State = Failed
	w.messages[i].Error = reason
	id := w.id
	w.mu.Unlock()
	w.changed(id)
	return true
}

// Acknowledge records the server copy of an optimistic message once the
// send call returned. The entry is confirmed in place unless the push for
// it already arrived.
func (w *Window) Acknowledge(clientID string, server *remote.Message) bool {
	w.mu.Lock()
	i := w.index(clientID)
	if i < 0 || w.messages[i].State == Confirmed {
		w.mu.Unlock()
		return false
	}
	if server == nil || server.ID == "" {
		w.mu.Unlock()
		return false
	}
	if w.index(server.ID) >= 0 {
		// Push won the race; the optimistic copy is a leftover.
		w.messages = slices.Delete(w.messages, i, i+1)
	} else {
		confirmed := FromRemote(*server)
		if confirmed.ConversationID == "" {
			confirmed.ConversationID = w.messages[i].ConversationID
		}
		if confirmed.CreatedAt.IsZero() {
			confirmed.CreatedAt = w.messages[i].CreatedAt
		}
		if !confirmed.Sender.Populated() && confirmed.Sender.ID == w.messages[i].Sender.ID {
			confirmed.Sender = w.messages[i].Sender
		}
		w.messages[i] = confirmed
	}
	id := w.id
	w.mu.Unlock()
	w.changed(id)
	return true
}

// HandleIncoming applies a pushed message. Messages for other
// conversations are ignored. At most one optimistic entry with the same
// sender and text is removed before the authoritative copy is appended.
func (w *Window) HandleIncoming(msg remote.Message) bool {
	w.mu.Lock()
	if w.id == "" || msg.ConversationID.ID != w.id {
		w.mu.Unlock()
		return false
	}
	if msg.ID != "" && w.index(msg.ID) >= 0 {
		w.mu.Unlock()
		return false
	}
	if j := slices.IndexFunc(w.messages, func(m Message) bool { return m.matches(msg) }); j >= 0 {
		w.messages = slices.Delete(w.messages, j, j+1)
	}
	w.messages = append(w.messages, FromRemote(msg))
	id := w.id
	w.mu.Unlock()
	w.changed(id)
	return true
}

// index must be called with mu held.
func (w *Window) index(id string) int {
	return slices.IndexFunc(w.messages, func(m Message) bool { return m.ID == id })
}

// ConversationID returns the open conversation, or "".
func (w *Window) ConversationID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

// Conversation returns the open conversation's header, if loaded.
func (w *Window) Conversation() *remote.Conversation {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conversation == nil {
		return nil
	}
	c := *w.conversation
	return &c
}

// Messages returns a copy of the held messages in display order.
func (w *Window) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.messages)
}

// HasMore reports whether older history may exist.
func (w *Window) HasMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasMore
}

// Loading reports whether a fetch is in flight.
func (w *Window) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

func (w *Window) changed(id string) {
	w.bus.Emit(bus.KindMessagesChanged, MessagesChanged{ConversationID: id})
}

// bind returns a context cancelled when either parent is.
func bind(scope, caller context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(scope)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// chronological orders a page oldest first regardless of server order.
func chronological(page []remote.Message) []remote.Message {
	out := slices.Clone(page)
	slices.SortStableFunc(out, func(a, b remote.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}
