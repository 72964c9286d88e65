package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ChatServiceName is the fully-qualified service name on the daemon socket.
const ChatServiceName = "yovo.v1.ChatService"

// ChatServer is the daemon side of the chat service.
type ChatServer interface {
	ListConversations(context.Context, *ListConversationsRequest) (*ConversationsResponse, error)
	OpenConversation(context.Context, *ConversationRequest) (*MessagesResponse, error)
	CloseConversation(context.Context, *Empty) (*Empty, error)
	LoadOlder(context.Context, *Empty) (*LoadOlderResponse, error)
	GetMessages(context.Context, *Empty) (*MessagesResponse, error)
	SendText(context.Context, *SendTextRequest) (*SendTextResponse, error)
	RetrySend(context.Context, *RetrySendRequest) (*Empty, error)
	CreateConversation(context.Context, *CreateConversationRequest) (*ConversationResponse, error)
	HideConversation(context.Context, *ConversationRequest) (*Empty, error)
	UnhideConversation(context.Context, *ConversationRequest) (*Empty, error)
	RenameGroup(context.Context, *RenameGroupRequest) (*Empty, error)
	LeaveGroup(context.Context, *ConversationRequest) (*Empty, error)
	DeleteGroup(context.Context, *ConversationRequest) (*Empty, error)
	GetOnlineUsers(context.Context, *Empty) (*OnlineUsersResponse, error)
	WatchEvents(*WatchEventsRequest, EventSender) error
}

// EventSender is the server side of a WatchEvents stream.
type EventSender interface {
	Send(*EventEnvelope) error
	grpc.ServerStream
}

type eventSender struct {
	grpc.ServerStream
}

func (s *eventSender) Send(e *EventEnvelope) error { return s.ServerStream.SendMsg(e) }

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServer).WatchEvents(in, &eventSender{stream})
}

// ChatServiceDesc describes the chat service.
var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "ListConversations", ChatServer.ListConversations),
		unary(ChatServiceName, "OpenConversation", ChatServer.OpenConversation),
		unary(ChatServiceName, "CloseConversation", ChatServer.CloseConversation),
		unary(ChatServiceName, "LoadOlder", ChatServer.LoadOlder),
		unary(ChatServiceName, "GetMessages", ChatServer.GetMessages),
		unary(ChatServiceName, "SendText", ChatServer.SendText),
		unary(ChatServiceName, "RetrySend", ChatServer.RetrySend),
		unary(ChatServiceName, "CreateConversation", ChatServer.CreateConversation),
		unary(ChatServiceName, "HideConversation", ChatServer.HideConversation),
		unary(ChatServiceName, "UnhideConversation", ChatServer.UnhideConversation),
		unary(ChatServiceName, "RenameGroup", ChatServer.RenameGroup),
		unary(ChatServiceName, "LeaveGroup", ChatServer.LeaveGroup),
		unary(ChatServiceName, "DeleteGroup", ChatServer.DeleteGroup),
		unary(ChatServiceName, "GetOnlineUsers", ChatServer.GetOnlineUsers),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "yovo/v1/chat",
}

// RegisterChatServer registers srv on s.
func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

// ChatClient calls the chat service.
type ChatClient struct {
	cc grpc.ClientConnInterface
}

// NewChatClient wraps a connection made with Dial.
func NewChatClient(cc grpc.ClientConnInterface) *ChatClient {
	return &ChatClient{cc: cc}
}

func (c *ChatClient) method(name string) string { return "/" + ChatServiceName + "/" + name }

func (c *ChatClient) ListConversations(ctx context.Context, in *ListConversationsRequest, opts ...grpc.CallOption) (*ConversationsResponse, error) {
	return invoke[ConversationsResponse](ctx, c.cc, c.method("ListConversations"), in, opts...)
}

func (c *ChatClient) OpenConversation(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, c.method("OpenConversation"), in, opts...)
}

func (c *ChatClient) CloseConversation(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("CloseConversation"), &Empty{}, opts...)
	return err
}

func (c *ChatClient) LoadOlder(ctx context.Context, opts ...grpc.CallOption) (*LoadOlderResponse, error) {
	return invoke[LoadOlderResponse](ctx, c.cc, c.method("LoadOlder"), &Empty{}, opts...)
}

func (c *ChatClient) GetMessages(ctx context.Context, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, c.method("GetMessages"), &Empty{}, opts...)
}

func (c *ChatClient) SendText(ctx context.Context, in *SendTextRequest, opts ...grpc.CallOption) (*SendTextResponse, error) {
	return invoke[SendTextResponse](ctx, c.cc, c.method("SendText"), in, opts...)
}

func (c *ChatClient) RetrySend(ctx context.Context, in *RetrySendRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("RetrySend"), in, opts...)
	return err
}

func (c *ChatClient) CreateConversation(ctx context.Context, in *CreateConversationRequest, opts ...grpc.CallOption) (*ConversationResponse, error) {
	return invoke[ConversationResponse](ctx, c.cc, c.method("CreateConversation"), in, opts...)
}

func (c *ChatClient) HideConversation(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("HideConversation"), in, opts...)
	return err
}

func (c *ChatClient) UnhideConversation(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("UnhideConversation"), in, opts...)
	return err
}

func (c *ChatClient) RenameGroup(ctx context.Context, in *RenameGroupRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("RenameGroup"), in, opts...)
	return err
}

func (c *ChatClient) LeaveGroup(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("LeaveGroup"), in, opts...)
	return err
}

func (c *ChatClient) DeleteGroup(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("DeleteGroup"), in, opts...)
	return err
}

func (c *ChatClient) GetOnlineUsers(ctx context.Context, opts ...grpc.CallOption) (*OnlineUsersResponse, error) {
	return invoke[OnlineUsersResponse](ctx, c.cc, c.method("GetOnlineUsers"), &Empty{}, opts...)
}

// EventStream is the client side of a WatchEvents stream.
type EventStream struct {
	grpc.ClientStream
}

// Recv blocks for the next event.
func (s *EventStream) Recv() (*EventEnvelope, error) {
	e := new(EventEnvelope)
	if err := s.ClientStream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

// WatchEvents streams daemon events until ctx ends.
func (c *ChatClient) WatchEvents(ctx context.Context, in *WatchEventsRequest, opts ...grpc.CallOption) (*EventStream, error) {
	stream, err := c.cc.NewStream(ctx, &ChatServiceDesc.Streams[0], c.method("WatchEvents"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream}, nil
}
