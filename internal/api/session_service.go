package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/store"
	"github.com/yovo-social/yovo/internal/validate"
)

// Connectivity reports whether the realtime channel is up.
type Connectivity interface {
	Connected() bool
}

// SessionService implements rpc.SessionServer.
type SessionService struct {
	sessionName string
	startedAt   time.Time
	session     *auth.Session
	client      *remote.Client
	rt          Connectivity
	chat        *chat.Engine
	db          *store.DB
	logger      *zap.Logger
}

// NewSessionService creates a new session service. rt and engine may be nil.
func NewSessionService(sessionName string, session *auth.Session, client *remote.Client, rt Connectivity, engine *chat.Engine, db *store.DB, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessionName: sessionName,
		startedAt:   time.Now(),
		session:     session,
		client:      client,
		rt:          rt,
		chat:        engine,
		db:          db,
		logger:      logger,
	}
}

func (s *SessionService) GetStatus(_ context.Context, _ *rpc.Empty) (*rpc.StatusResponse, error) {
	snap := s.session.Snapshot()
	resp := &rpc.StatusResponse{
		Session:     s.sessionName,
		State:       snap.State,
		User:        snap.User,
		SignedIn:    snap.SignedIn,
		RateLimited: snap.RateLimited,
		TokenExpiry: snap.TokenExpiry,
		ServerURL:   s.client.BaseURL().String(),
		UptimeMs:    time.Since(s.startedAt).Milliseconds(),
	}
	if snap.RateLimited {
		resp.CooldownUntil = snap.CooldownUntil
	}
	if s.rt != nil {
		resp.Connected = s.rt.Connected()
	}
	if s.chat != nil {
		resp.UnreadMessages = s.chat.List().TotalUnread()
	}
	return resp, nil
}

func (s *SessionService) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.UserResponse, error) {
	if err := validate.Login(req.Username, req.Password); err != nil {
		return nil, toStatus("login", err)
	}
	user, err := s.client.Login(ctx, remote.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", req.Username), zap.Error(err))
		return nil, toStatus("login", err)
	}
	return &rpc.UserResponse{User: user}, nil
}

func (s *SessionService) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.UserResponse, error) {
	if err := validate.Register(req.Username, req.Email, req.Password); err != nil {
		return nil, toStatus("register", err)
	}
	user, err := s.client.Register(ctx, remote.Credentials{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		s.logger.Warn("register failed", zap.String("username", req.Username), zap.Error(err))
		return nil, toStatus("register", err)
	}
	return &rpc.UserResponse{User: user}, nil
}

func (s *SessionService) FirebaseLogin(ctx context.Context, req *rpc.FirebaseLoginRequest) (*rpc.UserResponse, error) {
	if err := required("id_token", req.IDToken); err != nil {
		return nil, err
	}
	user, err := s.client.FirebaseLogin(ctx, req.IDToken)
	if err != nil {
		s.logger.Warn("firebase login failed", zap.Error(err))
		return nil, toStatus("firebase login", err)
	}
	return &rpc.UserResponse{User: user}, nil
}

func (s *SessionService) Me(ctx context.Context, _ *rpc.Empty) (*rpc.UserResponse, error) {
	if !s.session.SignedIn() {
		return nil, toStatus("me", auth.ErrNotSignedIn)
	}
	if u := s.session.User(); u.Complete() {
		return &rpc.UserResponse{User: u}, nil
	}
	p, err := s.client.Me(ctx)
	if err != nil {
		return nil, toStatus("me", err)
	}
	return &rpc.UserResponse{User: &p.User}, nil
}

func (s *SessionService) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := s.client.Logout(ctx); err != nil {
		// Local state is cleared regardless.
		s.logger.Warn("server logout failed", zap.Error(err))
	}
	return &rpc.Empty{}, nil
}

func (s *SessionService) LogoutAll(ctx context.Context, req *rpc.PasswordRequest) (*rpc.Empty, error) {
	if err := required("password", req.Password); err != nil {
		return nil, err
	}
	if err := s.client.LogoutAll(ctx, req.Password); err != nil {
		return nil, toStatus("logout all", err)
	}
	return &rpc.Empty{}, nil
}

func (s *SessionService) LogoutOtherSessions(ctx context.Context, req *rpc.PasswordRequest) (*rpc.LogoutOtherSessionsResponse, error) {
	if err := required("password", req.Password); err != nil {
		return nil, err
	}
	cur, err := s.client.LogoutOtherSessions(ctx, req.Password)
	if err != nil {
		return nil, toStatus("logout other sessions", err)
	}
	return &rpc.LogoutOtherSessionsResponse{Current: cur}, nil
}

func (s *SessionService) GetTheme(_ context.Context, _ *rpc.Empty) (*rpc.ThemeResponse, error) {
	theme, err := s.db.Theme()
	if err != nil {
		return nil, toStatus("get theme", err)
	}
	return &rpc.ThemeResponse{Theme: theme}, nil
}

func (s *SessionService) SetTheme(_ context.Context, req *rpc.ThemeRequest) (*rpc.ThemeResponse, error) {
	if req.Theme != store.ThemeLight && req.Theme != store.ThemeDark {
		return nil, toStatus("set theme", validate.Errors{{Field: "theme", Message: "must be light or dark"}})
	}
	if err := s.db.SetTheme(req.Theme); err != nil {
		return nil, toStatus("set theme", err)
	}
	return &rpc.ThemeResponse{Theme: req.Theme}, nil
}
