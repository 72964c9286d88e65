package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/rpc"
)

// ChatService implements rpc.ChatServer on top of the chat engine.
type ChatService struct {
	engine      *chat.Engine
	client      *remote.Client
	bus         *bus.Bus
	sessionName string
	logger      *zap.Logger
}

// NewChatService creates a new chat service.
func NewChatService(engine *chat.Engine, client *remote.Client, b *bus.Bus, sessionName string, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{engine: engine, client: client, bus: b, sessionName: sessionName, logger: logger}
}

func (s *ChatService) ListConversations(ctx context.Context, req *rpc.ListConversationsRequest) (*rpc.ConversationsResponse, error) {
	if req.Refresh {
		if err := s.engine.Reload(ctx); err != nil {
			return nil, toStatus("list conversations", err)
		}
	}
	list := s.engine.List()
	convs := list.Sorted()
	resp := &rpc.ConversationsResponse{
		Conversations: make([]rpc.ConversationView, 0, len(convs)),
		TotalUnread:   list.TotalUnread(),
	}
	for _, c := range convs {
		resp.Conversations = append(resp.Conversations, s.view(c))
	}
	return resp, nil
}

func (s *ChatService) OpenConversation(ctx context.Context, req *rpc.ConversationRequest) (*rpc.MessagesResponse, error) {
	if err := required("conversation_id", req.ConversationID); err != nil {
		return nil, err
	}
	if err := s.engine.Open(ctx, req.ConversationID); err != nil {
		s.logger.Warn("open conversation", zap.String("conversation", req.ConversationID), zap.Error(err))
		return nil, toStatus("open conversation", err)
	}
	return s.window(), nil
}

func (s *ChatService) CloseConversation(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	s.engine.Close()
	return &rpc.Empty{}, nil
}

func (s *ChatService) LoadOlder(ctx context.Context, _ *rpc.Empty) (*rpc.LoadOlderResponse, error) {
	n, err := s.engine.Window().LoadOlder(ctx)
	if err != nil {
		return nil, toStatus("load older", err)
	}
	return &rpc.LoadOlderResponse{Added: n, MessagesResponse: *s.window()}, nil
}

func (s *ChatService) GetMessages(_ context.Context, _ *rpc.Empty) (*rpc.MessagesResponse, error) {
	return s.window(), nil
}

func (s *ChatService) SendText(ctx context.Context, req *rpc.SendTextRequest) (*rpc.SendTextResponse, error) {
	w := s.engine.Window()
	if req.ConversationID != "" && req.ConversationID != w.ConversationID() {
		if err := s.engine.Open(ctx, req.ConversationID); err != nil {
			return nil, toStatus("open conversation", err)
		}
	}
	msg, err := w.Send(ctx, req.Text)
	if err != nil {
		if msg.ID != "" {
			// Kept in the window as failed; the caller can retry it.
			s.logger.Warn("queue message", zap.String("client_msg_id", msg.ID), zap.Error(err))
			return &rpc.SendTextResponse{Message: msg}, nil
		}
		return nil, toStatus("send", err)
	}
	return &rpc.SendTextResponse{Message: msg}, nil
}

func (s *ChatService) RetrySend(ctx context.Context, req *rpc.RetrySendRequest) (*rpc.Empty, error) {
	if err := required("client_id", req.ClientID); err != nil {
		return nil, err
	}
	if err := s.engine.Window().Retry(ctx, req.ClientID); err != nil {
		return nil, toStatus("retry send", err)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) CreateConversation(ctx context.Context, req *rpc.CreateConversationRequest) (*rpc.ConversationResponse, error) {
	if err := required("user_id", req.UserID); err != nil {
		return nil, err
	}
	c, err := s.client.CreateConversation(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("create conversation", err)
	}
	s.engine.List().Upsert(*c)
	return &rpc.ConversationResponse{Conversation: s.view(*c)}, nil
}

func (s *ChatService) HideConversation(ctx context.Context, req *rpc.ConversationRequest) (*rpc.Empty, error) {
	if err := required("conversation_id", req.ConversationID); err != nil {
		return nil, err
	}
	if err := s.client.HideConversation(ctx, req.ConversationID); err != nil {
		return nil, toStatus("hide conversation", err)
	}
	if s.engine.Window().ConversationID() == req.ConversationID {
		s.engine.Close()
	}
	s.engine.List().Remove(req.ConversationID)
	return &rpc.Empty{}, nil
}

func (s *ChatService) UnhideConversation(ctx context.Context, req *rpc.ConversationRequest) (*rpc.Empty, error) {
	if err := required("conversation_id", req.ConversationID); err != nil {
		return nil, err
	}
	if err := s.client.UnhideConversation(ctx, req.ConversationID); err != nil {
		return nil, toStatus("unhide conversation", err)
	}
	if err := s.engine.Reload(ctx); err != nil {
		s.logger.Warn("reload after unhide", zap.Error(err))
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) RenameGroup(ctx context.Context, req *rpc.RenameGroupRequest) (*rpc.Empty, error) {
	if err := required("conversation_id", req.ConversationID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	if err := s.client.RenameGroup(ctx, req.ConversationID, name); err != nil {
		return nil, toStatus("rename group", err)
	}
	if c, ok := s.engine.List().Get(req.ConversationID); ok {
		c.GroupName = name
		s.engine.List().Upsert(c)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) LeaveGroup(ctx context.Context, req *rpc.ConversationRequest) (*rpc.Empty, error) {
	return s.dropGroup(ctx, "leave group", req, s.client.LeaveGroup)
}

func (s *ChatService) DeleteGroup(ctx context.Context, req *rpc.ConversationRequest) (*rpc.Empty, error) {
	return s.dropGroup(ctx, "delete group", req, s.client.DeleteGroup)
}

func (s *ChatService) dropGroup(ctx context.Context, op string, req *rpc.ConversationRequest, call func(context.Context, string) error) (*rpc.Empty, error) {
	if err := required("conversation_id", req.ConversationID); err != nil {
		return nil, err
	}
	if err := call(ctx, req.ConversationID); err != nil {
		return nil, toStatus(op, err)
	}
	if s.engine.Window().ConversationID() == req.ConversationID {
		s.engine.Close()
	}
	s.engine.List().Remove(req.ConversationID)
	return &rpc.Empty{}, nil
}

func (s *ChatService) GetOnlineUsers(_ context.Context, _ *rpc.Empty) (*rpc.OnlineUsersResponse, error) {
	return &rpc.OnlineUsersResponse{UserIDs: s.engine.List().Online()}, nil
}

// WatchEvents streams bus events to the caller until it disconnects.
func (s *ChatService) WatchEvents(req *rpc.WatchEventsRequest, stream rpc.EventSender) error {
	ch, unsub := s.bus.Subscribe("", 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			if !wanted(req.Namespaces, evt.Kind) {
				continue
			}
			env := &rpc.EventEnvelope{
				EventID:    uuid.New().String(),
				Session:    s.sessionName,
				OccurredAt: evt.Timestamp,
				Kind:       evt.Kind,
			}
			if evt.Payload != nil {
				payload, err := json.Marshal(evt.Payload)
				if err != nil {
					s.logger.Warn("encode event payload", zap.String("kind", evt.Kind), zap.Error(err))
				} else {
					env.Payload = payload
				}
			}
			if err := stream.Send(env); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func wanted(namespaces []string, kind string) bool {
	if len(namespaces) == 0 {
		return true
	}
	for _, ns := range namespaces {
		if strings.HasPrefix(kind, ns) {
			return true
		}
	}
	return false
}

func (s *ChatService) view(c remote.Conversation) rpc.ConversationView {
	list := s.engine.List()
	return rpc.ConversationView{Conversation: c, Label: list.Label(c), Online: list.IsOnline(c)}
}

func (s *ChatService) window() *rpc.MessagesResponse {
	w := s.engine.Window()
	resp := &rpc.MessagesResponse{
		ConversationID: w.ConversationID(),
		Messages:       w.Messages(),
		HasMore:        w.HasMore(),
		Loading:        w.Loading(),
	}
	if c := w.Conversation(); c != nil {
		v := s.view(*c)
		resp.Conversation = &v
	}
	return resp
}
