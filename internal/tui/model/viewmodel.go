package model

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/tui/client"
)

// Change names the part of the model that a refresh concerns.
type Change int

const (
	ChangeStatus Change = 1 << iota
	ChangeConversations
	ChangeMessages
	ChangeFeed
	ChangeTheme
)

// ViewModel caches daemon state for the views and signals refreshes.
type ViewModel struct {
	mu sync.RWMutex

	client        *client.Client
	status        *rpc.StatusResponse
	conversations []rpc.ConversationView
	totalUnread   int
	thread        *rpc.MessagesResponse
	posts         []remote.Post
	feedCursor    string
	feedMore      bool
	theme         string

	refreshCh chan Change
}

// NewViewModel creates a view model over the daemon client.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client:    c,
		refreshCh: make(chan Change, 16),
	}
}

// RefreshCh delivers a Change after each state update.
func (vm *ViewModel) RefreshCh() <-chan Change {
	return vm.refreshCh
}

func (vm *ViewModel) signal(c Change) {
	select {
	case vm.refreshCh <- c:
	default:
	}
}

// LoadStatus fetches the session status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.client.Session.GetStatus(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = resp
	vm.mu.Unlock()
	vm.signal(ChangeStatus)
	return nil
}

// Login signs in and refreshes the status.
func (vm *ViewModel) Login(ctx context.Context, username, password string) error {
	if _, err := vm.client.Session.Login(ctx, &rpc.LoginRequest{Username: username, Password: password}); err != nil {
		return err
	}
	return vm.LoadStatus(ctx)
}

// Logout ends the session and drops every cached list.
func (vm *ViewModel) Logout(ctx context.Context) error {
	if err := vm.client.Session.Logout(ctx); err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = nil
	vm.totalUnread = 0
	vm.thread = nil
	vm.posts = nil
	vm.feedCursor = ""
	vm.feedMore = false
	vm.mu.Unlock()
	vm.signal(ChangeConversations | ChangeMessages | ChangeFeed)
	return vm.LoadStatus(ctx)
}

// LoadConversations fetches the list; refresh asks the daemon to reload it
// from the server first.
func (vm *ViewModel) LoadConversations(ctx context.Context, refresh bool) error {
	resp, err := vm.client.Chat.ListConversations(ctx, &rpc.ListConversationsRequest{Refresh: refresh})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = resp.Conversations
	vm.totalUnread = resp.TotalUnread
	vm.mu.Unlock()
	vm.signal(ChangeConversations)
	return nil
}

// Open makes id the daemon's open conversation.
func (vm *ViewModel) Open(ctx context.Context, id string) error {
	resp, err := vm.client.Chat.OpenConversation(ctx, &rpc.ConversationRequest{ConversationID: id})
	if err != nil {
		return err
	}
	vm.setThread(resp)
	return nil
}

// Close closes the open conversation.
func (vm *ViewModel) Close(ctx context.Context) error {
	vm.mu.Lock()
	vm.thread = nil
	vm.mu.Unlock()
	vm.signal(ChangeMessages)
	return vm.client.Chat.CloseConversation(ctx)
}

// LoadMessages re-reads the open window.
func (vm *ViewModel) LoadMessages(ctx context.Context) error {
	resp, err := vm.client.Chat.GetMessages(ctx)
	if err != nil {
		return err
	}
	vm.setThread(resp)
	return nil
}

// LoadOlder fetches the page before the oldest loaded message and returns
// how many messages it added.
func (vm *ViewModel) LoadOlder(ctx context.Context) (int, error) {
	resp, err := vm.client.Chat.LoadOlder(ctx)
	if err != nil {
		return 0, err
	}
	vm.setThread(&resp.MessagesResponse)
	return resp.Added, nil
}

func (vm *ViewModel) setThread(resp *rpc.MessagesResponse) {
	vm.mu.Lock()
	if resp.ConversationID == "" {
		vm.thread = nil
	} else {
		vm.thread = resp
	}
	vm.mu.Unlock()
	vm.signal(ChangeMessages)
}

// Send sends text to the open conversation.
func (vm *ViewModel) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if _, err := vm.client.Chat.SendText(ctx, &rpc.SendTextRequest{Text: text}); err != nil {
		return err
	}
	return vm.LoadMessages(ctx)
}

// Retry resends a failed message.
func (vm *ViewModel) Retry(ctx context.Context, clientID string) error {
	if err := vm.client.Chat.RetrySend(ctx, &rpc.RetrySendRequest{ClientID: clientID}); err != nil {
		return err
	}
	return vm.LoadMessages(ctx)
}

// LoadFeed fetches the first feed page, or the next one when more is set.
func (vm *ViewModel) LoadFeed(ctx context.Context, more bool) error {
	vm.mu.RLock()
	cursor := ""
	if more {
		cursor = vm.feedCursor
	}
	vm.mu.RUnlock()

	page, err := vm.client.Feed.Feed(ctx, &rpc.CursorRequest{Cursor: cursor})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	if more {
		vm.posts = appendPosts(vm.posts, page.Posts)
	} else {
		vm.posts = page.Posts
	}
	vm.feedCursor = page.NextCursor
	vm.feedMore = page.HasMore
	vm.mu.Unlock()
	vm.signal(ChangeFeed)
	return nil
}

// appendPosts adds next to posts, skipping ids already present.
func appendPosts(posts, next []remote.Post) []remote.Post {
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		seen[p.ID] = struct{}{}
	}
	for _, p := range next {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		posts = append(posts, p)
	}
	return posts
}

// Like toggles the like on a feed post and updates its counters.
func (vm *ViewModel) Like(ctx context.Context, postID string) (bool, error) {
	resp, err := vm.client.Feed.Like(ctx, &rpc.PostRequest{PostID: postID})
	if err != nil {
		return false, err
	}
	vm.mu.Lock()
	for i := range vm.posts {
		p := &vm.posts[i]
		if p.ID != postID || p.IsLiked == resp.Active {
			continue
		}
		p.IsLiked = resp.Active
		if resp.Active {
			p.LikesCount++
		} else if p.LikesCount > 0 {
			p.LikesCount--
		}
	}
	vm.mu.Unlock()
	vm.signal(ChangeFeed)
	return resp.Active, nil
}

// Search queries posts, users and tags.
func (vm *ViewModel) Search(ctx context.Context, query string) (*remote.SearchResults, error) {
	return vm.client.Feed.Search(ctx, &rpc.SearchRequest{Query: query})
}

// Share returns a link to the post along with its QR rendering.
func (vm *ViewModel) Share(ctx context.Context, postID string) (*rpc.ShareResponse, error) {
	return vm.client.Feed.Share(ctx, &rpc.ShareRequest{PostID: postID, QR: true})
}

// LoadTheme reads the stored theme.
func (vm *ViewModel) LoadTheme(ctx context.Context) error {
	resp, err := vm.client.Session.GetTheme(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.theme = resp.Theme
	vm.mu.Unlock()
	vm.signal(ChangeTheme)
	return nil
}

// SetTheme stores name as the theme.
func (vm *ViewModel) SetTheme(ctx context.Context, name string) error {
	resp, err := vm.client.Session.SetTheme(ctx, &rpc.ThemeRequest{Theme: name})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.theme = resp.Theme
	vm.mu.Unlock()
	vm.signal(ChangeTheme)
	return nil
}

// Watch follows the daemon's event stream and reloads whatever each event
// touches. It returns when ctx ends or the stream breaks.
func (vm *ViewModel) Watch(ctx context.Context) error {
	stream, err := vm.client.Chat.WatchEvents(ctx, &rpc.WatchEventsRequest{
		Namespaces: []string{"session.", "rt.", "chat.", "outbox."},
	})
	if err != nil {
		return err
	}
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		vm.apply(ctx, evt.Kind)
	}
}

func (vm *ViewModel) apply(ctx context.Context, kind string) {
	switch kind {
	case bus.KindStatusChanged, bus.KindRateLimited, bus.KindRTConnected, bus.KindRTDisconnected:
		_ = vm.LoadStatus(ctx)
	case bus.KindLoggedOut:
		vm.mu.Lock()
		vm.conversations = nil
		vm.totalUnread = 0
		vm.thread = nil
		vm.mu.Unlock()
		vm.signal(ChangeConversations | ChangeMessages)
		_ = vm.LoadStatus(ctx)
	case bus.KindConversationsChanged, bus.KindPresenceChanged:
		_ = vm.LoadConversations(ctx, false)
		_ = vm.LoadStatus(ctx)
	case bus.KindMessagesChanged, bus.KindSendAck, bus.KindSendFailed:
		if vm.Thread() != nil {
			_ = vm.LoadMessages(ctx)
		}
	}
}

// Status returns the last fetched status.
func (vm *ViewModel) Status() *rpc.StatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// Conversations returns the cached list and its unread total.
func (vm *ViewModel) Conversations() ([]rpc.ConversationView, int) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations, vm.totalUnread
}

// Conversation finds a cached conversation by id.
func (vm *ViewModel) Conversation(id string) (rpc.ConversationView, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range vm.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return rpc.ConversationView{}, false
}

// Thread returns the open window, or nil when none is open.
func (vm *ViewModel) Thread() *rpc.MessagesResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.thread
}

// Feed returns the loaded posts and whether more pages exist.
func (vm *ViewModel) Feed() ([]remote.Post, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.posts, vm.feedMore
}

// Theme returns the stored theme name.
func (vm *ViewModel) Theme() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.theme
}

// Me returns the signed-in user's id.
func (vm *ViewModel) Me() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.status == nil || vm.status.User == nil {
		return ""
	}
	return vm.status.User.ID
}
