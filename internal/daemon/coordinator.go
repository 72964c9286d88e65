package daemon

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/status"
)

// Realtime is the push channel the coordinator drives.
type Realtime interface {
	Start()
	Stop()
}

// Resetter drops per-user state on logout.
type Resetter interface {
	Reset()
}

// Coordinator ties the realtime channel to the session lifecycle. It opens
// the socket once a sign-in reaches Connecting, mirrors socket health into
// the state machine and tears everything down on logout.
type Coordinator struct {
	machine *status.Machine
	rt      Realtime
	chat    Resetter
	bus     *bus.Bus
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCoordinator creates a stopped coordinator.
func NewCoordinator(machine *status.Machine, rt Realtime, chat Resetter, b *bus.Bus, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{machine: machine, rt: rt, chat: chat, bus: b, logger: logger}
}

// Start subscribes to session and realtime events. Idempotent.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	sessionCh, unsubSession := c.bus.Subscribe("session.", 64)
	rtCh, unsubRT := c.bus.Subscribe("rt.", 64)

	go func() {
		defer close(done)
		defer unsubSession()
		defer unsubRT()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-sessionCh:
				c.handle(evt)
			case evt := <-rtCh:
				c.handle(evt)
			}
		}
	}()
}

// Stop unsubscribes and stops the realtime channel.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.rt.Stop()
}

func (c *Coordinator) handle(evt bus.Event) {
	switch evt.Kind {
	case bus.KindStatusChanged:
		change, ok := evt.Payload.(status.StatusChange)
		if ok && change.To == status.Connecting {
			c.logger.Info("signed in, opening realtime channel")
			c.rt.Start()
		}

	case bus.KindLoggedOut:
		c.logger.Info("signed out, closing realtime channel", zap.Any("reason", evt.Payload))
		c.rt.Stop()
		c.chat.Reset()

	case bus.KindRTConnected:
		if c.machine.In(status.Connecting, status.Reconnecting) {
			c.transition(status.Ready)
		}

	case bus.KindRTDisconnected:
		if c.machine.In(status.Ready, status.RateLimited) {
			c.transition(status.Reconnecting)
		}
	}
}

func (c *Coordinator) transition(to status.State) {
	if err := c.machine.Transition(to); err != nil {
		c.logger.Warn("state transition rejected", zap.Error(err))
	}
}
