package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func msg(id, conv, sender, text string, minute int) remote.Message {
	return remote.Message{
		ID:             id,
		ConversationID: remote.Ref{ID: conv},
		Sender:         remote.Ref{ID: sender},
		Text:           text,
		CreatedAt:      t0.Add(time.Duration(minute) * time.Minute),
	}
}

// history builds n messages m<start>..m<start+n-1>, one minute apart.
func history(conv string, start, n int) []remote.Message {
	out := make([]remote.Message, 0, n)
	for i := start; i < start+n; i++ {
		out = append(out, msg(fmt.Sprintf("m%03d", i), conv, "u2", fmt.Sprintf("text %d", i), i))
	}
	return out
}

type messagesCall struct {
	Conversation string
	Query        remote.MessageQuery
}

// fakeBackend serves canned pages. A conversation listed in gates blocks
// its next Messages call until the gate is closed or the context ends.
type fakeBackend struct {
	mu       sync.Mutex
	pages    map[string][][]remote.Message
	gates    map[string]chan struct{}
	entered  chan string
	calls    []messagesCall
	reads    []string
	fetchErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		pages:   map[string][][]remote.Message{},
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 16),
	}
}

func (f *fakeBackend) addPage(conv string, page []remote.Message) {
	f.mu.Lock()
	f.pages[conv] = append(f.pages[conv], page)
	f.mu.Unlock()
}

func (f *fakeBackend) gate(conv string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[conv] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeBackend) Messages(ctx context.Context, conv string, q remote.MessageQuery) ([]remote.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messagesCall{Conversation: conv, Query: q})
	gate := f.gates[conv]
	delete(f.gates, conv)
	err := f.fetchErr
	var page []remote.Message
	if p := f.pages[conv]; len(p) > 0 {
		page, f.pages[conv] = p[0], p[1:]
	}
	f.mu.Unlock()

	f.entered <- conv
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *fakeBackend) Conversation(_ context.Context, id string) (*remote.Conversation, error) {
	return &remote.Conversation{ID: id, Participants: []remote.Ref{{ID: "u1"}, {ID: "u2", Username: "bob"}}}, nil
}

func (f *fakeBackend) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	f.reads = append(f.reads, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Calls() []messagesCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]messagesCall(nil), f.calls...)
}

type fakeRooms struct {
	mu  sync.Mutex
	log []string
}

func (r *fakeRooms) Join(id string)  { r.add("join " + id) }
func (r *fakeRooms) Leave(id string) { r.add("leave " + id) }
func (r *fakeRooms) add(s string) {
	r.mu.Lock()
	r.log = append(r.log, s)
	r.mu.Unlock()
}
func (r *fakeRooms) Log() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.log, ",")
}

type fakeOutbox struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (o *fakeOutbox) Enqueue(_ context.Context, clientID, conv, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, clientID+"|"+conv+"|"+text)
	if len(o.errs) > 0 {
		err := o.errs[0]
		o.errs = o.errs[1:]
		return err
	}
	return nil
}

func (o *fakeOutbox) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

// durableOutbox also remembers sends that were given up on.
type durableOutbox struct {
	fakeOutbox
	failed []store.OutboxEntry
}

func (o *durableOutbox) Failed(conv string) ([]store.OutboxEntry, error) {
	var out []store.OutboxEntry
	for _, e := range o.failed {
		if e.ConversationID == conv {
			out = append(out, e)
		}
	}
	return out, nil
}

func signedIn(t *testing.T, b *bus.Bus) *auth.Session {
	t.Helper()
	s := auth.NewSession(nil, b, nil)
	s.Login("token", &auth.User{ID: "u1", Username: "alice"})
	return s
}

type fixture struct {
	backend *fakeBackend
	rooms   *fakeRooms
	outbox  *fakeOutbox
	bus     *bus.Bus
	window  *Window
}

func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()
	f := &fixture{
		backend: newFakeBackend(),
		rooms:   &fakeRooms{},
		outbox:  &fakeOutbox{},
		bus:     bus.New(),
	}
	f.window = NewWindow(f.backend, f.rooms, f.outbox, signedIn(t, f.bus), f.bus, pageSize, nil)
	return f
}

func ids(msgs []Message) string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return strings.Join(out, ",")
}

func TestOpenLoadsNewestPageChronologically(t *testing.T) {
	f := newFixture(t, 3)
	page := history("c1", 1, 3)
	// Server order is not relied on.
	f.backend.addPage("c1", []remote.Message{page[2], page[0], page[1]})

	if err := f.window.Open(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if got := ids(f.window.Messages()); got != "m001,m002,m003" {
		t.Errorf("messages = %s", got)
	}
	if !f.window.HasMore() {
		t.Error("HasMore = false after a full page")
	}
	if f.window.Loading() {
		t.Error("Loading = true after Open returned")
	}
	if c := f.window.Conversation(); c == nil || c.ID != "c1" {
		t.Errorf("conversation = %+v", c)
	}
	calls := f.backend.Calls()
	if len(calls) != 1 || calls[0].Query != (remote.MessageQuery{Limit: 3}) {
		t.Errorf("calls = %+v", calls)
	}
	if len(f.backend.reads) != 1 || f.backend.reads[0] != "c1" {
		t.Errorf("mark read calls = %v", f.backend.reads)
	}
	if got := f.rooms.Log(); got != "join c1" {
		t.Errorf("rooms = %s", got)
	}
}

func TestOpenRestoresFailedSends(t *testing.T) {
	b := bus.New()
	backend := newFakeBackend()
	backend.addPage("c1", history("c1", 1, 2))
	ob := &durableOutbox{failed: []store.OutboxEntry{
		{ClientMsgID: "tmp-a", ConversationID: "c1", Body: "lost", ErrorMessage: "Too many requests", CreatedAt: t0.UnixMilli()},
		{ClientMsgID: "tmp-b", ConversationID: "c2", Body: "elsewhere"},
	}}
	w := NewWindow(backend, nil, ob, signedIn(t, b), b, 20, nil)

	if err := w.Open(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	got := w.Messages()
	if ids(got) != "m001,m002,tmp-a" {
		t.Fatalf("messages = %s", ids(got))
	}
	restored := got[2]
	if restored.State != Failed || restored.Error != "Too many requests" || restored.Sender.ID != "u1" {
		t.Errorf("restored = %+v", restored)
	}

	if err := w.Retry(context.Background(), "tmp-a"); err != nil {
		t.Fatal(err)
	}
	if calls := ob.Calls(); len(calls) != 1 || calls[0] != "tmp-a|c1|lost" {
		t.Errorf("outbox calls = %v", calls)
	}
}

func TestPaginationBoundary(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		wantMore bool
	}{
		{"exactly limit continues", 20, true},
		{"limit minus one stops", 19, false},
		{"empty stops", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.backend.addPage("c1", history("c1", 100, tt.n))
			if err := f.window.Open(context.Background(), "c1"); err != nil {
				t.Fatal(err)
			}
			if got := f.window.HasMore(); got != tt.wantMore {
				t.Errorf("HasMore = %v, want %v", got, tt.wantMore)
			}
			if got := len(f.window.Messages()); got != tt.n {
				t.Errorf("held %d messages, want %d", got, tt.n)
			}
		})
	}
}

func TestLoadOlderPrependsUntilShortPage(t *testing.T) {
	f := newFixture(t, 2)
	f.backend.addPage("c1", history("c1", 5, 2))
	f.backend.addPage("c1", history("c1", 3, 2))
	f.backend.addPage("c1", history("c1", 2, 1))
	ctx := context.Background()

	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	n, err := f.window.LoadOlder(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || !f.window.HasMore() {
		t.Errorf("first LoadOlder added %d, HasMore %v", n, f.window.HasMore())
	}
	n, err = f.window.LoadOlder(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || f.window.HasMore() {
		t.Errorf("second LoadOlder added %d, HasMore %v", n, f.window.HasMore())
	}
	// Exhausted: no further request.
	if n, err := f.window.LoadOlder(ctx); n != 0 || err != nil {
		t.Errorf("LoadOlder after exhaustion = %d, %v", n, err)
	}

	if got := ids(f.window.Messages()); got != "m002,m003,m004,m005,m006" {
		t.Errorf("messages = %s", got)
	}
	calls := f.backend.Calls()
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	if calls[1].Query.Before != "m005" || calls[2].Query.Before != "m003" {
		t.Errorf("before cursors = %q, %q", calls[1].Query.Before, calls[2].Query.Before)
	}
}

func TestLoadOlderDropsDuplicates(t *testing.T) {
	f := newFixture(t, 2)
	f.backend.addPage("c1", history("c1", 5, 2))
	// Overlapping page: m005 is already held.
	f.backend.addPage("c1", history("c1", 4, 2))
	ctx := context.Background()

	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	n, err := f.window.LoadOlder(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("added %d, want 1", n)
	}
	if got := ids(f.window.Messages()); got != "m004,m005,m006" {
		t.Errorf("messages = %s", got)
	}
}

func TestLoadOlderWithoutConversation(t *testing.T) {
	f := newFixture(t, 2)
	if _, err := f.window.LoadOlder(context.Background()); !errors.Is(err, ErrNoConversation) {
		t.Errorf("err = %v, want ErrNoConversation", err)
	}
}

func TestIncomingReconcilesOptimisticMessage(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}

	sent, err := f.window.Send(ctx, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if !IsTempID(sent.ID) || sent.State != Pending || sent.Sender.ID != "u1" {
		t.Fatalf("optimistic = %+v", sent)
	}
	if calls := f.outbox.Calls(); len(calls) != 1 || calls[0] != sent.ID+"|c1|hi" {
		t.Errorf("outbox calls = %v", calls)
	}

	if !f.window.HandleIncoming(msg("m9", "c1", "u1", "hi", 1)) {
		t.Fatal("HandleIncoming ignored message for open conversation")
	}
	got := f.window.Messages()
	if len(got) != 1 {
		t.Fatalf("held %d messages, want 1: %+v", len(got), got)
	}
	if got[0].ID != "m9" || got[0].State != Confirmed {
		t.Errorf("message = %+v, want confirmed m9", got[0])
	}
}

func TestIncomingRemovesAtMostOneOptimistic(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := f.window.Send(ctx, "hi"); err != nil {
			t.Fatal(err)
		}
	}
	f.window.HandleIncoming(msg("m9", "c1", "u1", "hi", 1))

	got := f.window.Messages()
	if len(got) != 2 {
		t.Fatalf("held %d messages, want 2", len(got))
	}
	if !IsTempID(got[0].ID) || got[1].ID != "m9" {
		t.Errorf("messages = %s", ids(got))
	}
}

func TestIncomingLeavesOtherSendersOptimistic(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.window.Send(ctx, "hi"); err != nil {
		t.Fatal(err)
	}
	// Same text, different sender.
	f.window.HandleIncoming(msg("m9", "c1", "u2", "hi", 1))
	if got := f.window.Messages(); len(got) != 2 {
		t.Errorf("held %d messages, want 2", len(got))
	}
}

func TestIncomingIgnoresOtherConversationsAndDuplicates(t *testing.T) {
	f := newFixture(t, 20)
	f.backend.addPage("c1", history("c1", 1, 2))
	if err := f.window.Open(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if f.window.HandleIncoming(msg("x1", "c2", "u2", "elsewhere", 5)) {
		t.Error("message for c2 applied to c1 window")
	}
	if f.window.HandleIncoming(msg("m002", "c1", "u2", "text 2", 2)) {
		t.Error("duplicate id applied twice")
	}
	if got := ids(f.window.Messages()); got != "m001,m002" {
		t.Errorf("messages = %s", got)
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if _, err := f.window.Send(ctx, "hi"); !errors.Is(err, ErrNoConversation) {
		t.Errorf("send without conversation = %v", err)
	}
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.window.Send(ctx, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("send blank = %v", err)
	}
	if n := len(f.window.Messages()); n != 0 {
		t.Errorf("held %d messages after rejected sends", n)
	}
}

func TestFailedSendAndRetry(t *testing.T) {
	f := newFixture(t, 20)
	f.outbox.errs = []error{errors.New("disk full")}
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}

	sent, err := f.window.Send(ctx, "hello")
	if err == nil {
		t.Fatal("Send = nil, want outbox error")
	}
	if sent.State != Failed {
		t.Errorf("returned state = %s, want failed", sent.State)
	}
	got := f.window.Messages()
	if len(got) != 1 || got[0].State != Failed || got[0].Error != "disk full" {
		t.Fatalf("messages = %+v", got)
	}

	if err := f.window.Retry(ctx, sent.ID); err != nil {
		t.Fatal(err)
	}
	got = f.window.Messages()
	if got[0].State != Pending || got[0].Error != "" {
		t.Errorf("after retry = %+v, want pending", got[0])
	}
	calls := f.outbox.Calls()
	if len(calls) != 2 || calls[1] != sent.ID+"|c1|hello" {
		t.Errorf("outbox calls = %v", calls)
	}

	// Only failed messages can be retried.
	if err := f.window.Retry(ctx, sent.ID); !errors.Is(err, ErrNotFailed) {
		t.Errorf("retry pending = %v, want ErrNotFailed", err)
	}
	if err := f.window.Retry(ctx, "tmp-nope"); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("retry unknown = %v, want ErrUnknownMessage", err)
	}
}

func TestMarkFailedFromDelivery(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	sent, err := f.window.Send(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !f.window.MarkFailed(sent.ID, "Failed to send message") {
		t.Fatal("MarkFailed = false")
	}
	if got := f.window.Messages()[0]; got.State != Failed {
		t.Errorf("state = %s, want failed", got.State)
	}
	if f.window.MarkFailed("m1", "x") {
		t.Error("MarkFailed on unknown id = true")
	}
}

func TestAcknowledgeConfirmsInPlace(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	first, _ := f.window.Send(ctx, "one")
	if _, err := f.window.Send(ctx, "two"); err != nil {
		t.Fatal(err)
	}

	server := msg("m1", "c1", "u1", "one", 0)
	if !f.window.Acknowledge(first.ID, &server) {
		t.Fatal("Acknowledge = false")
	}
	got := f.window.Messages()
	if got[0].ID != "m1" || got[0].State != Confirmed || got[0].Sender.Username != "alice" {
		t.Errorf("acknowledged = %+v", got[0])
	}
	if got[1].State != Pending {
		t.Errorf("second message state = %s", got[1].State)
	}

	// The push for the same message is then a duplicate.
	if f.window.HandleIncoming(server) {
		t.Error("push after ack applied again")
	}
	if n := len(f.window.Messages()); n != 2 {
		t.Errorf("held %d messages, want 2", n)
	}
}

func TestAcknowledgeAfterPush(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	sent, _ := f.window.Send(ctx, "hi")
	server := msg("m1", "c1", "u1", "hi", 0)
	f.window.HandleIncoming(server)
	if f.window.Acknowledge(sent.ID, &server) {
		t.Error("Acknowledge after push = true")
	}
	if got := ids(f.window.Messages()); got != "m1" {
		t.Errorf("messages = %s", got)
	}
}

func TestSwitchClearsBeforeFetchResolves(t *testing.T) {
	f := newFixture(t, 20)
	f.backend.addPage("c1", history("c1", 1, 3))
	f.backend.addPage("c2", history("c2", 10, 2))
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	<-f.backend.entered

	release := f.backend.gate("c2")
	done := make(chan error, 1)
	go func() { done <- f.window.Open(ctx, "c2") }()

	if got := <-f.backend.entered; got != "c2" {
		t.Fatalf("fetch for %s, want c2", got)
	}
	if id := f.window.ConversationID(); id != "c2" {
		t.Errorf("ConversationID = %q while loading", id)
	}
	if n := len(f.window.Messages()); n != 0 {
		t.Errorf("held %d messages of the previous conversation while loading", n)
	}
	if !f.window.Loading() {
		t.Error("Loading = false while fetch in flight")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := ids(f.window.Messages()); got != "m010,m011" {
		t.Errorf("messages = %s", got)
	}
	if got := f.rooms.Log(); got != "join c1,leave c1,join c2" {
		t.Errorf("rooms = %s", got)
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	f := newFixture(t, 20)
	f.backend.addPage("c1", history("c1", 1, 3))
	f.backend.addPage("c2", history("c2", 10, 2))
	ctx := context.Background()

	f.backend.gate("c1")
	done := make(chan error, 1)
	go func() { done <- f.window.Open(ctx, "c1") }()
	<-f.backend.entered

	if err := f.window.Open(ctx, "c2"); err != nil {
		t.Fatal(err)
	}
	// Opening c2 cancelled the c1 fetch.
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Errorf("c1 open = %v, want ErrStale", err)
	}
	if got := ids(f.window.Messages()); got != "m010,m011" {
		t.Errorf("messages = %s", got)
	}
	if id := f.window.ConversationID(); id != "c2" {
		t.Errorf("ConversationID = %q", id)
	}
}

func TestCloseDropsInFlightLoad(t *testing.T) {
	f := newFixture(t, 2)
	f.backend.addPage("c1", history("c1", 5, 2))
	ctx := context.Background()
	if err := f.window.Open(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	<-f.backend.entered

	f.backend.gate("c1")
	done := make(chan error, 1)
	go func() {
		_, err := f.window.LoadOlder(ctx)
		done <- err
	}()
	<-f.backend.entered

	f.window.Close()
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Errorf("LoadOlder = %v, want ErrStale", err)
	}
	if f.window.ConversationID() != "" || len(f.window.Messages()) != 0 {
		t.Error("window not cleared by Close")
	}
	if got := f.rooms.Log(); got != "join c1,leave c1" {
		t.Errorf("rooms = %s", got)
	}
}

func TestCallerCancelAbortsOpen(t *testing.T) {
	f := newFixture(t, 20)
	f.backend.gate("c1")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.window.Open(ctx, "c1") }()
	<-f.backend.entered
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Open = %v, want context.Canceled", err)
	}
	// The conversation stays open; a later Open can load it.
	if f.window.ConversationID() != "c1" {
		t.Errorf("ConversationID = %q", f.window.ConversationID())
	}
}

func TestOpenKeepsSendsMadeWhileLoading(t *testing.T) {
	f := newFixture(t, 20)
	f.backend.addPage("c1", history("c1", 1, 2))
	release := f.backend.gate("c1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.window.Open(ctx, "c1") }()
	<-f.backend.entered

	sent, err := f.window.Send(ctx, "early")
	if err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := ids(f.window.Messages()); got != "m001,m002,"+sent.ID {
		t.Errorf("messages = %s", got)
	}
}

func TestOpenSkipsPushedMessagesAlreadyInPage(t *testing.T) {
	f := newFixture(t, 20)
	page := history("c1", 1, 2)
	f.backend.addPage("c1", page)
	release := f.backend.gate("c1")

	done := make(chan error, 1)
	go func() { done <- f.window.Open(context.Background(), "c1") }()
	<-f.backend.entered

	f.window.HandleIncoming(page[1])
	f.window.HandleIncoming(msg("m003", "c1", "u2", "text 3", 3))
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := ids(f.window.Messages()); got != "m001,m002,m003" {
		t.Errorf("messages = %s, want m001,m002,m003", got)
	}
}

func TestOpenFetchErrorPropagates(t *testing.T) {
	f := newFixture(t, 20)
	f.backend.fetchErr = &remote.APIError{Status: 500, Message: "boom"}
	err := f.window.Open(context.Background(), "c1")
	if remote.StatusOf(err) != 500 {
		t.Errorf("err = %v, want status 500", err)
	}
	if f.window.Loading() {
		t.Error("Loading = true after failed Open")
	}
}

func TestWindowPublishesChanges(t *testing.T) {
	f := newFixture(t, 20)
	ch, unsub := f.bus.Subscribe("chat.", 16)
	defer unsub()

	if err := f.window.Open(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	select {
	case evt := <-ch:
		if evt.Kind != bus.KindMessagesChanged {
			t.Errorf("kind = %s", evt.Kind)
		}
		if p, ok := evt.Payload.(MessagesChanged); !ok || p.ConversationID != "c1" {
			t.Errorf("payload = %+v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event")
	}
}
