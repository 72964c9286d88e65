package daemon

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/api"
	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/config"
	"github.com/yovo-social/yovo/internal/lock"
	"github.com/yovo-social/yovo/internal/logging"
	"github.com/yovo-social/yovo/internal/outbox"
	"github.com/yovo-social/yovo/internal/realtime"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/session"
	"github.com/yovo-social/yovo/internal/share"
	"github.com/yovo-social/yovo/internal/status"
	"github.com/yovo-social/yovo/internal/store"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	// Config overrides ~/.yovo/config.toml when set.
	Config   *config.Config
	LogLevel string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideSession,
			provideLock,
			provideStore,
			provideRemote,
			provideRealtime,
			provideSender,
			provideChatEngine,
			provideLinks,
			provideCoordinator,
			provideSessionService,
			provideChatService,
			provideFeedService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, nil
	}
	return config.LoadOrDefault(session.ConfigPath())
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	level := p.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName, logging.Options{Level: level})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideSession(m *status.Machine, b *bus.Bus, logger *zap.Logger) *auth.Session {
	return auth.NewSession(m, b, logger.Named("auth"))
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName), p.SessionName)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is never opened by two
// daemons of the same session.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRemote(cfg *config.Config, s *auth.Session, logger *zap.Logger) (*remote.Client, error) {
	return remote.New(remote.Options{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.RequestTimeout.Duration,
	}, s, logger.Named("remote"))
}

func provideRealtime(client *remote.Client, s *auth.Session, b *bus.Bus, logger *zap.Logger) *realtime.Client {
	return realtime.New(realtime.Options{
		URL:    realtime.SocketURL(client.BaseURL()),
		Jar:    client.Jar(),
		Reauth: client.Reauthenticate,
	}, s, b, logger.Named("realtime"))
}

func provideSender(db *store.DB, client *remote.Client, s *auth.Session, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, client, b, s, logger.Named("outbox"))
}

func provideChatEngine(cfg *config.Config, client *remote.Client, rt *realtime.Client, sender *outbox.Sender, s *auth.Session, b *bus.Bus, logger *zap.Logger) *chat.Engine {
	list := chat.NewList(s, b)
	window := chat.NewWindow(client, rt, sender, s, b, cfg.MessagePageSize, logger.Named("window"))
	return chat.NewEngine(list, window, client, b, logger.Named("chat"))
}

func provideLinks(cfg *config.Config) (*share.Links, error) {
	return share.NewLinks(cfg.FrontendURL)
}

func provideCoordinator(m *status.Machine, rt *realtime.Client, engine *chat.Engine, b *bus.Bus, logger *zap.Logger) *Coordinator {
	return NewCoordinator(m, rt, engine, b, logger)
}

func provideSessionService(p Params, s *auth.Session, client *remote.Client, rt *realtime.Client, engine *chat.Engine, db *store.DB, logger *zap.Logger) *api.SessionService {
	return api.NewSessionService(p.SessionName, s, client, rt, engine, db, logger)
}

func provideChatService(p Params, engine *chat.Engine, client *remote.Client, b *bus.Bus, logger *zap.Logger) *api.ChatService {
	return api.NewChatService(engine, client, b, p.SessionName, logger)
}

func provideFeedService(client *remote.Client, links *share.Links, logger *zap.Logger) *api.FeedService {
	return api.NewFeedService(client, links, logger)
}

// resumeTimeout bounds the startup attempt to restore a session.
const resumeTimeout = 10 * time.Second

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, client *remote.Client, coord *Coordinator, engine *chat.Engine, sender *outbox.Sender, logger *zap.Logger) {
	var cancelResume context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Coordinator first: it must see the sign-in to open realtime.
			coord.Start(context.Background())
			engine.Start(context.Background())
			sender.Start(context.Background())

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			var ctx context.Context
			ctx, cancelResume = context.WithTimeout(context.Background(), resumeTimeout)
			go func() {
				defer cancelResume()
				if _, err := client.Resume(ctx); err != nil {
					logger.Info("no session to resume, sign-in required", zap.Error(err))
				} else {
					logger.Info("session resumed", zap.String("user", client.Session().UserID()))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancelResume != nil {
				cancelResume()
			}
			srv.Stop(ctx)
			sender.Stop()
			engine.Stop()
			coord.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
