package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// SessionServiceName is the fully-qualified service name on the daemon socket.
const SessionServiceName = "yovo.v1.SessionService"

// SessionServer is the daemon side of the session service.
type SessionServer interface {
	GetStatus(context.Context, *Empty) (*StatusResponse, error)
	Login(context.Context, *LoginRequest) (*UserResponse, error)
	Register(context.Context, *RegisterRequest) (*UserResponse, error)
	FirebaseLogin(context.Context, *FirebaseLoginRequest) (*UserResponse, error)
	Me(context.Context, *Empty) (*UserResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	LogoutAll(context.Context, *PasswordRequest) (*Empty, error)
	LogoutOtherSessions(context.Context, *PasswordRequest) (*LogoutOtherSessionsResponse, error)
	GetTheme(context.Context, *Empty) (*ThemeResponse, error)
	SetTheme(context.Context, *ThemeRequest) (*ThemeResponse, error)
}

// SessionServiceDesc describes the session service.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SessionServiceName, "GetStatus", SessionServer.GetStatus),
		unary(SessionServiceName, "Login", SessionServer.Login),
		unary(SessionServiceName, "Register", SessionServer.Register),
		unary(SessionServiceName, "FirebaseLogin", SessionServer.FirebaseLogin),
		unary(SessionServiceName, "Me", SessionServer.Me),
		unary(SessionServiceName, "Logout", SessionServer.Logout),
		unary(SessionServiceName, "LogoutAll", SessionServer.LogoutAll),
		unary(SessionServiceName, "LogoutOtherSessions", SessionServer.LogoutOtherSessions),
		unary(SessionServiceName, "GetTheme", SessionServer.GetTheme),
		unary(SessionServiceName, "SetTheme", SessionServer.SetTheme),
	},
	Metadata: "yovo/v1/session",
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

// SessionClient calls the session service.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionClient wraps a connection made with Dial.
func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func (c *SessionClient) method(name string) string { return "/" + SessionServiceName + "/" + name }

func (c *SessionClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, c.method("GetStatus"), &Empty{}, opts...)
}

func (c *SessionClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, c.method("Login"), in, opts...)
}

func (c *SessionClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, c.method("Register"), in, opts...)
}

func (c *SessionClient) FirebaseLogin(ctx context.Context, in *FirebaseLoginRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, c.method("FirebaseLogin"), in, opts...)
}

func (c *SessionClient) Me(ctx context.Context, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, c.method("Me"), &Empty{}, opts...)
}

func (c *SessionClient) Logout(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("Logout"), &Empty{}, opts...)
	return err
}

func (c *SessionClient) LogoutAll(ctx context.Context, in *PasswordRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, c.method("LogoutAll"), in, opts...)
	return err
}

func (c *SessionClient) LogoutOtherSessions(ctx context.Context, in *PasswordRequest, opts ...grpc.CallOption) (*LogoutOtherSessionsResponse, error) {
	return invoke[LogoutOtherSessionsResponse](ctx, c.cc, c.method("LogoutOtherSessions"), in, opts...)
}

func (c *SessionClient) GetTheme(ctx context.Context, opts ...grpc.CallOption) (*ThemeResponse, error) {
	return invoke[ThemeResponse](ctx, c.cc, c.method("GetTheme"), &Empty{}, opts...)
}

func (c *SessionClient) SetTheme(ctx context.Context, in *ThemeRequest, opts ...grpc.CallOption) (*ThemeResponse, error) {
	return invoke[ThemeResponse](ctx, c.cc, c.method("SetTheme"), in, opts...)
}
