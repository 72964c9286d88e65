package chat

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/outbox"
	"github.com/yovo-social/yovo/internal/remote"
)

// Lister fetches the conversation list.
type Lister interface {
	Conversations(ctx context.Context) ([]remote.Conversation, error)
}

// Engine routes realtime and outbox events into the conversation list and
// the open window.
type Engine struct {
	list   *List
	window *Window
	lister Lister
	bus    *bus.Bus
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new chat engine.
func NewEngine(list *List, window *Window, lister Lister, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		list:   list,
		window: window,
		lister: lister,
		bus:    b,
		logger: logger,
	}
}

// List returns the conversation list.
func (e *Engine) List() *List { return e.list }

// Window returns the open-conversation window.
func (e *Engine) Window() *Window { return e.window }

// Start subscribes to realtime and outbox events on the bus.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	rt, unsubRT := e.bus.Subscribe("rt.", 256)
	ob, unsubOB := e.bus.Subscribe("outbox.", 64)

	go func(done chan struct{}) {
		defer close(done)
		defer unsubRT()
		defer unsubOB()
		for {
			select {
			case evt := <-rt:
				e.handleEvent(ctx, evt)
			case evt := <-ob:
				e.handleEvent(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}(e.done)
}

// Stop stops the engine and waits for its loop to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (e *Engine) handleEvent(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case bus.KindRTNewMessage:
		msg, ok := evt.Payload.(remote.Message)
		if !ok {
			return
		}
		e.list.ApplyIncoming(msg)
		e.window.HandleIncoming(msg)
	case bus.KindRTOnlineUsers:
		ids, ok := evt.Payload.([]string)
		if !ok {
			return
		}
		e.list.SetOnline(ids)
	case bus.KindRTConnected:
		if err := e.Reload(ctx); err != nil {
			e.logger.Warn("reload conversations after connect", zap.Error(err))
		}
	case bus.KindSendAck:
		ack, ok := evt.Payload.(outbox.Ack)
		if !ok {
			return
		}
		if ack.Message.ConversationID.ID == "" {
			ack.Message.ConversationID.ID = ack.ConversationID
		}
		e.list.ApplyIncoming(ack.Message)
		e.window.Acknowledge(ack.ClientID, &ack.Message)
	case bus.KindSendFailed:
		f, ok := evt.Payload.(outbox.Failure)
		if !ok {
			return
		}
		e.window.MarkFailed(f.ClientID, f.Reason)
	}
}

// Reload replaces the conversation list from the server.
func (e *Engine) Reload(ctx context.Context) error {
	convs, err := e.lister.Conversations(ctx)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	e.list.Load(convs)
	return nil
}

// Open opens a conversation in the window and clears its unread counter.
func (e *Engine) Open(ctx context.Context, id string) error {
	e.list.SetOpen(id)
	if err := e.window.Open(ctx, id); err != nil {
		return err
	}
	if c := e.window.Conversation(); c != nil {
		if _, ok := e.list.Get(c.ID); !ok {
			c.UnreadCount = 0
			e.list.Upsert(*c)
		}
	}
	return nil
}

// Close closes the window.
func (e *Engine) Close() {
	e.list.SetOpen("")
	e.window.Close()
}

// Reset drops all chat state, as after a logout.
func (e *Engine) Reset() {
	e.Close()
	e.list.Load(nil)
	e.list.SetOnline(nil)
}
