package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/remote"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSocket accepts websocket connections and exposes them to the test.
type fakeSocket struct {
	conns    chan *websocket.Conn
	frames   chan Envelope
	authHdrs chan string
}

func newFakeSocket(t *testing.T) (*fakeSocket, string) {
	t.Helper()
	fs := &fakeSocket{
		conns:    make(chan *websocket.Conn, 4),
		frames:   make(chan Envelope, 64),
		authHdrs: make(chan string, 4),
	}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.authHdrs <- r.Header.Get("Authorization")
		fs.conns <- ws
		for {
			_, frame, err := ws.ReadMessage()
			if err != nil {
				return
			}
			env, err := ParseEnvelope(frame)
			if err == nil {
				fs.frames <- *env
			}
		}
	}))
	t.Cleanup(srv.Close)

	base, _ := url.Parse(srv.URL)
	return fs, SocketURL(base)
}

func (fs *fakeSocket) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case ws := <-fs.conns:
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
		return nil
	}
}

func (fs *fakeSocket) expect(t *testing.T, event string) Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env := <-fs.frames:
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("no %s frame", event)
			return Envelope{}
		}
	}
}

func push(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := NewEnvelope(event, data)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatal(err)
	}
}

func waitEvent(t *testing.T, ch <-chan bus.Event, kind string) bus.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == kind {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %s event", kind)
			return bus.Event{}
		}
	}
}

func newClient(t *testing.T, wsURL string, b *bus.Bus) *Client {
	t.Helper()
	s := auth.NewSession(nil, nil, nil)
	s.Login("tok", &auth.User{ID: "me", Username: "ana"})
	c := New(Options{URL: wsURL, ReconnectEvery: 20 * time.Millisecond}, s, b, nil)
	t.Cleanup(c.Stop)
	return c
}

func TestSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:5000":    "ws://localhost:5000/ws",
		"https://api.yovo.app/":    "wss://api.yovo.app/ws",
		"https://api.yovo.app/v1/": "wss://api.yovo.app/v1/ws",
	}
	for in, want := range tests {
		u, _ := url.Parse(in)
		if got := SocketURL(u); got != want {
			t.Errorf("SocketURL(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestConnectRegistersAndRequestsPresence(t *testing.T) {
	fs, wsURL := newFakeSocket(t)
	b := bus.New()
	events, unsub := b.Subscribe("rt.", 16)
	defer unsub()

	c := newClient(t, wsURL, b)
	c.Start()

	ws := fs.nextConn(t)
	if hdr := <-fs.authHdrs; hdr != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", hdr)
	}
	waitEvent(t, events, bus.KindRTConnected)

	reg := fs.expect(t, EventRegisterUser)
	if string(reg.Data) != `"me"` {
		t.Errorf("registerUser data = %s, want \"me\"", reg.Data)
	}
	fs.expect(t, EventGetOnlineUsers)

	push(t, ws, EventOnlineUsers, []string{"u1", "u2"})
	evt := waitEvent(t, events, bus.KindRTOnlineUsers)
	ids, _ := evt.Payload.([]string)
	if len(ids) != 2 || ids[0] != "u1" {
		t.Errorf("online ids = %v", evt.Payload)
	}

	push(t, ws, EventNewMessage, map[string]any{
		"_id":            "m1",
		"conversationId": map[string]string{"_id": "c1"},
		"sender":         "u1",
		"text":           "hi",
	})
	evt = waitEvent(t, events, bus.KindRTNewMessage)
	msg, ok := evt.Payload.(remote.Message)
	if !ok || msg.ConversationID.ID != "c1" || msg.Sender.ID != "u1" || msg.Text != "hi" {
		t.Errorf("newMessage payload = %#v", evt.Payload)
	}
}

func TestRoomsReplayedAfterReconnect(t *testing.T) {
	fs, wsURL := newFakeSocket(t)
	b := bus.New()
	events, unsub := b.Subscribe("rt.", 16)
	defer unsub()

	c := newClient(t, wsURL, b)
	c.Join("c1")
	c.Join("c2")
	c.Leave("c2")
	c.Start()

	ws := fs.nextConn(t)
	waitEvent(t, events, bus.KindRTConnected)
	join := fs.expect(t, EventJoinConversation)
	if string(join.Data) != `"c1"` {
		t.Errorf("join data = %s, want \"c1\"", join.Data)
	}

	// Server drops the connection; the client comes back and rejoins.
	_ = ws.Close()
	waitEvent(t, events, bus.KindRTDisconnected)
	fs.nextConn(t)
	waitEvent(t, events, bus.KindRTConnected)
	fs.expect(t, EventRegisterUser)
	join = fs.expect(t, EventJoinConversation)
	if string(join.Data) != `"c1"` {
		t.Errorf("rejoin data = %s, want \"c1\"", join.Data)
	}
	if c.Dials() < 2 {
		t.Errorf("dials = %d, want >= 2", c.Dials())
	}

	c.Leave("c1")
	fs.expect(t, EventLeaveConversation)
}

func TestEmitWhileDisconnected(t *testing.T) {
	c := New(Options{URL: "ws://127.0.0.1:1/ws"}, auth.NewSession(nil, nil, nil), nil, nil)
	if err := c.Emit(EventGetOnlineUsers, nil); err != ErrNotConnected {
		t.Errorf("Emit = %v, want ErrNotConnected", err)
	}
	if c.Connected() || c.Running() {
		t.Error("new client should be idle")
	}
}

func TestStopIsIdempotentAndRestartable(t *testing.T) {
	fs, wsURL := newFakeSocket(t)
	c := newClient(t, wsURL, nil)

	c.Start()
	c.Start()
	fs.nextConn(t)
	c.Stop()
	c.Stop()
	if c.Running() || c.Connected() {
		t.Error("client should be stopped")
	}

	c.Start()
	fs.nextConn(t)
	c.Stop()
}

func TestParseEnvelopeRejectsNamelessFrames(t *testing.T) {
	if _, err := ParseEnvelope([]byte(`{"data":1}`)); err == nil {
		t.Error("expected error for frame without event")
	}
	if _, err := ParseEnvelope([]byte(`nope`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestUnauthorizedHandshakeReauthenticates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	accepted := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		accepted <- r.Header.Get("Authorization")
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	s := auth.NewSession(nil, nil, nil)
	s.Login("expired", &auth.User{ID: "me"})
	var reauths atomic.Int32
	c := New(Options{
		URL:            SocketURL(base),
		ReconnectEvery: 20 * time.Millisecond,
		Reauth: func(context.Context) error {
			reauths.Add(1)
			s.Refresh("fresh")
			return nil
		},
	}, s, nil, nil)
	c.Start()
	defer c.Stop()

	select {
	case hdr := <-accepted:
		if hdr != "Bearer fresh" {
			t.Errorf("Authorization = %q", hdr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("socket never accepted the refreshed token")
	}
	if n := reauths.Load(); n != 1 {
		t.Errorf("reauths = %d, want 1", n)
	}
}
