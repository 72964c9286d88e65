package chat

import (
	"context"
	"testing"
	"time"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/outbox"
	"github.com/yovo-social/yovo/internal/remote"
)

type fakeLister struct {
	convs []remote.Conversation
	calls chan struct{}
}

func (f *fakeLister) Conversations(context.Context) ([]remote.Conversation, error) {
	f.calls <- struct{}{}
	return f.convs, nil
}

func newTestEngine(t *testing.T) (*Engine, *fixture, *fakeLister) {
	t.Helper()
	f := newFixture(t, 20)
	list := NewList(signedIn(t, f.bus), f.bus)
	lister := &fakeLister{calls: make(chan struct{}, 4)}
	e := NewEngine(list, f.window, lister, f.bus, nil)
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return e, f, lister
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngineRoutesNewMessage(t *testing.T) {
	e, f, _ := newTestEngine(t)
	ctx := context.Background()
	e.List().Load([]remote.Conversation{conv("c1", 0), conv("c2", 0)})
	if err := e.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Window().Send(ctx, "hi"); err != nil {
		t.Fatal(err)
	}

	f.bus.Emit(bus.KindRTNewMessage, msg("m1", "c1", "u1", "hi", 1))
	f.bus.Emit(bus.KindRTNewMessage, msg("m2", "c2", "u2", "psst", 2))

	eventually(t, "unread on c2", func() bool {
		c, _ := e.List().Get("c2")
		return c.UnreadCount == 1
	})
	got := e.Window().Messages()
	if len(got) != 1 || got[0].ID != "m1" {
		t.Errorf("window = %+v", got)
	}
	if c, _ := e.List().Get("c1"); c.UnreadCount != 0 || c.LastMessage == nil || c.LastMessage.ID != "m1" {
		t.Errorf("c1 = %+v", c)
	}
}

func TestEngineRoutesOutboxEvents(t *testing.T) {
	e, f, _ := newTestEngine(t)
	ctx := context.Background()
	if err := e.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	a, _ := e.Window().Send(ctx, "one")
	b, _ := e.Window().Send(ctx, "two")

	f.bus.Emit(bus.KindSendAck, outbox.Ack{ClientID: a.ID, ConversationID: "c1", Message: msg("m1", "c1", "u1", "one", 1)})
	f.bus.Emit(bus.KindSendFailed, outbox.Failure{ClientID: b.ID, ConversationID: "c1", Reason: "Failed to send message"})

	eventually(t, "ack and failure applied", func() bool {
		got := e.Window().Messages()
		return len(got) == 2 && got[0].ID == "m1" && got[1].State == Failed
	})
	if c, ok := e.List().Get("c1"); !ok || c.LastMessage.Text != "one" {
		t.Errorf("list entry = %+v", c)
	}
}

func TestEnginePresence(t *testing.T) {
	e, f, _ := newTestEngine(t)
	ch, unsub := f.bus.Subscribe(bus.KindPresenceChanged, 4)
	defer unsub()

	f.bus.Emit(bus.KindRTOnlineUsers, []string{"u2"})

	select {
	case evt := <-ch:
		if p := evt.Payload.(PresenceChanged); len(p.Online) != 1 || p.Online[0] != "u2" {
			t.Errorf("payload = %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no presence event")
	}
	if !e.List().UserOnline("u2") {
		t.Error("u2 not online")
	}
}

func TestEngineReloadsOnConnect(t *testing.T) {
	e, f, lister := newTestEngine(t)
	lister.convs = []remote.Conversation{conv("c9", 0)}

	f.bus.Emit(bus.KindRTConnected, nil)
	select {
	case <-lister.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("conversations not reloaded")
	}
	eventually(t, "list loaded", func() bool {
		_, ok := e.List().Get("c9")
		return ok
	})
}

func TestEngineOpenAddsMissingConversation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if err := e.Open(context.Background(), "fresh"); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.List().Get("fresh"); !ok {
		t.Error("opened conversation not listed")
	}
	e.Close()
	if e.Window().ConversationID() != "" {
		t.Error("window still open after Close")
	}
}

func TestEngineReset(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.List().Load([]remote.Conversation{conv("c1", 0)})
	e.List().SetOnline([]string{"u2"})
	if err := e.Open(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	e.Reset()
	if len(e.List().Sorted()) != 0 || len(e.List().Online()) != 0 || e.Window().ConversationID() != "" {
		t.Error("state survived Reset")
	}
}

func TestEngineStopIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Start(context.Background())
	e.Stop()
	e.Stop()
}
