// Package outbox delivers queued messages through the remote API and
// reports the outcome on the bus.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/store"
)

const (
	// PollInterval is how often the queue is drained without a kick.
	PollInterval = 500 * time.Millisecond
	// SentRetention is how long delivered entries are kept.
	SentRetention = 24 * time.Hour
)

// MessageSender posts a message to a conversation.
type MessageSender interface {
	SendMessage(ctx context.Context, conversationID, text string) (*remote.Message, error)
}

// Gate reports whether sending should pause.
type Gate interface {
	RateLimited() bool
}

// Ack is the payload of bus.KindSendAck.
type Ack struct {
	ClientID       string
	ConversationID string
	Message        remote.Message
}

// Failure is the payload of bus.KindSendFailed.
type Failure struct {
	ClientID       string
	ConversationID string
	Reason         string
}

// Sender drains the outbox and sends messages via the remote API.
type Sender struct {
	db     *store.DB
	sender MessageSender
	gate   Gate
	bus    *bus.Bus
	logger *zap.Logger
	kick   chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSender creates a new outbox sender. gate may be nil.
func NewSender(db *store.DB, sender MessageSender, b *bus.Bus, gate Gate, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		db:     db,
		sender: sender,
		gate:   gate,
		bus:    b,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}
}

// Enqueue stores a message for delivery. An id already queued or failed
// is put back in the queue.
func (s *Sender) Enqueue(_ context.Context, clientID, conversationID, text string) error {
	if err := s.db.QueueOutbox(clientID, conversationID, text); err != nil {
		return fmt.Errorf("queue outbox: %w", err)
	}
	s.wake()
	return nil
}

// Retry re-queues a failed entry.
func (s *Sender) Retry(_ context.Context, clientID string) error {
	if err := s.db.RequeueOutbox(clientID); err != nil {
		return fmt.Errorf("requeue %s: %w", clientID, err)
	}
	s.wake()
	return nil
}

// Failed returns the sends of a conversation that were given up on, oldest
// first.
func (s *Sender) Failed(conversationID string) ([]store.OutboxEntry, error) {
	return s.db.FailedOutbox(conversationID)
}

func (s *Sender) wake() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Start begins polling the outbox for pending messages. Entries left in
// 'sending' by a previous run are queued again.
func (s *Sender) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	if n, err := s.db.ResetSendingOutbox(); err != nil {
		s.logger.Error("failed to reset interrupted sends", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("requeued interrupted sends", zap.Int64("count", n))
	}
	if n, err := s.db.PruneSentOutbox(time.Now().Add(-SentRetention)); err != nil {
		s.logger.Warn("failed to prune delivered sends", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("pruned delivered sends", zap.Int64("count", n))
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop stops the sender loop and waits for an in-flight send to finish.
func (s *Sender) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sender) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-s.kick:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	if s.gate != nil && s.gate.RateLimited() {
		return
	}
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		msg, err := s.sender.SendMessage(ctx, entry.ConversationID, entry.Body)
		if err == nil && msg == nil {
			err = errors.New("empty send response")
		}
		if err != nil {
			if ctx.Err() != nil {
				// Shutting down; the entry is requeued on next start.
				return
			}
			reason := remote.ErrorMessage(err, "Failed to send message")
			s.logger.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			if err := s.db.MarkOutboxFailed(entry.ClientMsgID, reason); err != nil {
				s.logger.Error("failed to mark failed", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			}
			s.bus.Emit(bus.KindSendFailed, Failure{
				ClientID:       entry.ClientMsgID,
				ConversationID: entry.ConversationID,
				Reason:         reason,
			})
			var rl *remote.RateLimitError
			if errors.As(err, &rl) {
				return
			}
			continue
		}

		if err := s.db.MarkOutboxSent(entry.ClientMsgID, msg.ID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		}
		s.logger.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID), zap.String("server_msg_id", msg.ID))
		s.bus.Emit(bus.KindSendAck, Ack{
			ClientID:       entry.ClientMsgID,
			ConversationID: entry.ConversationID,
			Message:        *msg,
		})
	}
}
