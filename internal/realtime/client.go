// Package realtime maintains the push channel to the server: presence
// snapshots and newly delivered messages arrive here and are republished
// on the bus.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/remote"
)

// ErrNotConnected is returned by Emit while the socket is down.
var ErrNotConnected = errors.New("realtime: not connected")

// Options tunes the socket. Zero values take the defaults.
type Options struct {
	// URL is the websocket endpoint, e.g. ws://localhost:5000/ws.
	URL            string
	Jar            http.CookieJar
	PongWait       time.Duration
	PingPeriod     time.Duration
	WriteWait      time.Duration
	ReconnectEvery time.Duration
	ReadLimit      int64
	// Reauth is called when the handshake is rejected with 401. It should
	// rotate the session token; the next dial carries the new one.
	Reauth func(ctx context.Context) error
}

func (o *Options) defaults() {
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.ReconnectEvery <= 0 {
		o.ReconnectEvery = 2 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
}

// SocketURL derives the websocket endpoint from the API base URL.
func SocketURL(base *url.URL) string {
	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.JoinPath("ws").String()
}

type conn struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (cn *conn) close() {
	cn.closeOnce.Do(func() {
		close(cn.done)
		_ = cn.ws.Close()
	})
}

// Client keeps one websocket open while started, reconnecting with a paced
// backoff. Joined conversation rooms survive reconnects.
type Client struct {
	opts    Options
	dialer  *websocket.Dialer
	session *auth.Session
	bus     *bus.Bus
	log     *zap.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	cur    *conn
	rooms  map[string]struct{}
	cancel context.CancelFunc
	done   chan struct{}

	connected atomic.Bool
	dials     atomic.Int64
}

// New creates a stopped client.
func New(opts Options, session *auth.Session, b *bus.Bus, log *zap.Logger) *Client {
	opts.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		opts:    opts,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.WriteWait, Jar: opts.Jar},
		session: session,
		bus:     b,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(opts.ReconnectEvery), 1),
		rooms:   make(map[string]struct{}),
	}
}

// Start launches the connection loop. Calling Start while running is a no-op.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Stop closes the socket and waits for the loop to exit. Joined rooms are
// forgotten.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether Start was called without a matching Stop.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Connected reports whether the socket is currently up.
func (c *Client) Connected() bool { return c.connected.Load() }

// Dials returns how many connection attempts were made.
func (c *Client) Dials() int64 { return c.dials.Load() }

// Join subscribes to a conversation room, now and after every reconnect.
func (c *Client) Join(conversationID string) {
	c.mu.Lock()
	c.rooms[conversationID] = struct{}{}
	c.mu.Unlock()
	if err := c.Emit(EventJoinConversation, conversationID); err != nil && !errors.Is(err, ErrNotConnected) {
		c.log.Warn("join conversation", zap.String("conversation", conversationID), zap.Error(err))
	}
}

// Leave unsubscribes from a conversation room.
func (c *Client) Leave(conversationID string) {
	c.mu.Lock()
	_, joined := c.rooms[conversationID]
	delete(c.rooms, conversationID)
	c.mu.Unlock()
	if !joined {
		return
	}
	if err := c.Emit(EventLeaveConversation, conversationID); err != nil && !errors.Is(err, ErrNotConnected) {
		c.log.Warn("leave conversation", zap.String("conversation", conversationID), zap.Error(err))
	}
}

// RequestOnlineUsers asks the server for a presence snapshot.
func (c *Client) RequestOnlineUsers() error {
	return c.Emit(EventGetOnlineUsers, nil)
}

// Emit queues an event on the current connection.
func (c *Client) Emit(event string, data any) error {
	frame, err := NewEnvelope(event, data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	cn := c.cur
	c.mu.Unlock()
	if cn == nil {
		return ErrNotConnected
	}
	select {
	case cn.send <- frame:
		return nil
	case <-cn.done:
		return ErrNotConnected
	default:
		return fmt.Errorf("realtime: send buffer full, dropped %s", event)
	}
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
		c.dials.Add(1)
		cn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("realtime dial failed", zap.Error(err))
			continue
		}
		c.serve(ctx, cn)
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Client) dial(ctx context.Context) (*conn, error) {
	header := http.Header{}
	if token := c.session.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	ws, resp, err := c.dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized && c.opts.Reauth != nil {
			if rerr := c.opts.Reauth(ctx); rerr != nil {
				return nil, fmt.Errorf("handshake unauthorized: %w", rerr)
			}
		}
		return nil, err
	}
	return &conn{ws: ws, send: make(chan []byte, 64), done: make(chan struct{})}, nil
}

func (c *Client) serve(ctx context.Context, cn *conn) {
	c.mu.Lock()
	c.cur = cn
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	c.mu.Unlock()

	c.connected.Store(true)
	c.log.Info("realtime connected", zap.String("url", c.opts.URL))
	c.bus.Emit(bus.KindRTConnected, nil)

	if id := c.session.UserID(); id != "" {
		_ = c.Emit(EventRegisterUser, id)
	}
	for _, id := range rooms {
		_ = c.Emit(EventJoinConversation, id)
	}
	_ = c.RequestOnlineUsers()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		c.readPump(cn)
	}()
	c.writePump(ctx, cn)
	cn.close()
	<-readDone

	c.mu.Lock()
	if c.cur == cn {
		c.cur = nil
	}
	c.mu.Unlock()
	c.connected.Store(false)
	c.log.Info("realtime disconnected")
	c.bus.Emit(bus.KindRTDisconnected, nil)
}

func (c *Client) readPump(cn *conn) {
	defer cn.close()

	cn.ws.SetReadLimit(c.opts.ReadLimit)
	_ = cn.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	cn.ws.SetPongHandler(func(string) error {
		return cn.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, frame, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("realtime read", zap.Error(err))
			}
			return
		}
		_ = cn.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		c.handle(frame)
	}
}

func (c *Client) writePump(ctx context.Context, cn *conn) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-cn.send:
			_ = cn.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := cn.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = cn.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := cn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cn.done:
			return
		case <-ctx.Done():
			_ = cn.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			return
		}
	}
}

func (c *Client) handle(frame []byte) {
	env, err := ParseEnvelope(frame)
	if err != nil {
		c.log.Warn("realtime frame", zap.Error(err))
		return
	}

	switch env.Event {
	case EventNewMessage:
		var msg remote.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.log.Warn("decode newMessage", zap.Error(err))
			return
		}
		c.bus.Emit(bus.KindRTNewMessage, msg)

	case EventOnlineUsers:
		var refs []remote.Ref
		if err := json.Unmarshal(env.Data, &refs); err != nil {
			c.log.Warn("decode onlineUsers", zap.Error(err))
			return
		}
		ids := make([]string, 0, len(refs))
		for _, r := range refs {
			if r.ID != "" {
				ids = append(ids, r.ID)
			}
		}
		c.bus.Emit(bus.KindRTOnlineUsers, ids)

	default:
		c.log.Debug("realtime event ignored", zap.String("event", env.Event))
	}
}
