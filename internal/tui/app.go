package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/yovo-social/yovo/internal/status"
	"github.com/yovo-social/yovo/internal/store"
	"github.com/yovo-social/yovo/internal/tui/client"
	"github.com/yovo-social/yovo/internal/tui/keys"
	"github.com/yovo-social/yovo/internal/tui/model"
	"github.com/yovo-social/yovo/internal/tui/ui"
	"github.com/yovo-social/yovo/internal/tui/views"
)

// Page keys.
const (
	pageLogin   = "login"
	pageChats   = "chats"
	pageThread  = "thread"
	pageDetails = "details"
	pageFeed    = "feed"
	pageSearch  = "search"
	pageShare   = "share"
	pageHelp    = "help"
)

const (
	watchRetryDelay = 2 * time.Second
	callTimeout     = 15 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	vm       *model.ViewModel
	registry *keys.Registry
	flash    *ui.FlashModel
	theme    *ui.Theme
	session  string
	started  time.Time

	root      *tview.Flex
	body      *tview.Flex
	pages     *ui.Pages
	info      *ui.SessionInfo
	menu      *ui.Menu
	logo      *ui.Logo
	crumbs    *ui.Crumbs
	prompt    *ui.Prompt
	flashBar  *ui.FlashBar
	statusBar *views.StatusBar

	login   *views.LoginView
	chats   *views.ConversationList
	thread  *views.MessageThread
	details *views.ConversationInfo
	feed    *views.FeedView
	search  *views.SearchView
	share   *views.ShareView
	help    *views.HelpView

	promptShown bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.ThemeFor(store.ThemeLight)

	a := &App{
		app:       tview.NewApplication(),
		vm:        model.NewViewModel(c),
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		theme:     theme,
		session:   sessionName,
		started:   time.Now(),
		pages:     ui.NewPages(),
		info:      ui.NewSessionInfo(theme),
		menu:      ui.NewMenu(theme),
		logo:      ui.NewLogo(theme),
		crumbs:    ui.NewCrumbs(theme),
		prompt:    ui.NewPrompt(theme),
		flashBar:  ui.NewFlashBar(theme),
		statusBar: views.NewStatusBar(theme),
		login:     views.NewLoginView(theme),
		chats:     views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		details:   views.NewConversationInfo(theme),
		feed:      views.NewFeedView(theme),
		search:    views.NewSearchView(theme),
		share:     views.NewShareView(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupPages()
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupPages() {
	a.pages.Add(pageLogin, a.login)
	a.pages.Add(pageChats, a.chats)
	a.pages.Add(pageThread, a.thread)
	a.pages.Add(pageDetails, a.details)
	a.pages.Add(pageFeed, a.feed)
	a.pages.Add(pageSearch, a.search)
	a.pages.Add(pageShare, a.share)
	a.pages.Add(pageHelp, a.help)

	a.pages.SetOnChange(func(top ui.Component, stack []string) {
		a.crumbs.Update(stack)
		if top != nil {
			a.menu.Update(top.Hints())
		}
		a.focusCurrent()
	})
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: a.Stop,
	})
	a.registry.AddGlobal("help", &keys.Action{
		Rune: '?', Key: tcell.KeyRune,
		Description: "?:help", Visible: true,
		Handler: func() { a.pages.Push(pageHelp) },
	})
	a.registry.AddGlobal("command", &keys.Action{
		Rune: ':', Key: tcell.KeyRune,
		Description: ":command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})

	a.registry.AddView(pageChats, "filter", &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Description: "/:filter", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(pageChats, "clear-filter", &keys.Action{
		Rune: '0', Key: tcell.KeyRune,
		Handler: a.chats.ClearFilter,
	})
	for n := 1; n <= 9; n++ {
		a.registry.AddView(pageChats, fmt.Sprintf("jump-%d", n), &keys.Action{
			Rune: rune('0' + n), Key: tcell.KeyRune,
			Handler: func() {
				if id := a.chats.ByIndex(n); id != "" {
					a.openConversation(id)
				}
			},
		})
	}
	a.registry.AddView(pageChats, "reload", &keys.Action{
		Rune: 'R', Key: tcell.KeyRune,
		Description: "R:reload", Visible: true,
		Handler: func() { a.run("reload", func(ctx context.Context) error { return a.vm.LoadConversations(ctx, true) }) },
	})

	a.registry.AddView(pageThread, "compose", &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, "older", &keys.Action{
		Rune: 'k', Key: tcell.KeyRune,
		Description: "k:older", Visible: true,
		Handler: a.loadOlder,
	})
	a.registry.AddView(pageThread, "retry", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:retry", Visible: true,
		Handler: a.retryLast,
	})
	a.registry.AddView(pageThread, "details", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:details", Visible: true,
		Handler: a.showDetails,
	})

	a.registry.AddView(pageFeed, "like", &keys.Action{
		Rune: 'l', Key: tcell.KeyRune,
		Description: "l:like", Visible: true,
		Handler: a.likeSelected,
	})
	a.registry.AddView(pageFeed, "more", &keys.Action{
		Rune: 'n', Key: tcell.KeyRune,
		Description: "n:more", Visible: true,
		Handler: func() { a.run("load feed", func(ctx context.Context) error { return a.vm.LoadFeed(ctx, true) }) },
	})
	a.registry.AddView(pageFeed, "share", &keys.Action{
		Rune: 'y', Key: tcell.KeyRune,
		Description: "y:share", Visible: true,
		Handler: a.shareSelected,
	})
	a.registry.AddView(pageFeed, "reload", &keys.Action{
		Rune: 'R', Key: tcell.KeyRune,
		Description: "R:reload", Visible: true,
		Handler: func() { a.run("load feed", func(ctx context.Context) error { return a.vm.LoadFeed(ctx, false) }) },
	})
}

func (a *App) setupCallbacks() {
	a.login.SetOnSubmit(func(username, password string) {
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
			defer cancel()
			err := a.vm.Login(ctx, username, password)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.login.ShowMessage(errMessage(err), true)
					return
				}
				a.login.ShowMessage("", false)
				a.login.Reset()
			})
		}()
	})

	a.chats.SetSelectedFunc(func(row, _ int) {
		if id := a.chats.ByIndex(row); id != "" {
			a.openConversation(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		a.run("send", func(ctx context.Context) error { return a.vm.Send(ctx, text) })
	})

	a.search.SetOnQuery(func(query string) {
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
			defer cancel()
			results, err := a.vm.Search(ctx, query)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.flash.Err(fmt.Errorf("search: %s", errMessage(err)))
					a.flashBar.Update(a.flash.Current())
					return
				}
				a.search.Update(results)
				a.app.SetFocus(a.search.Results())
			})
		}()
	})
	a.search.Results().SetSelectedFunc(func(_, _ int) {
		r, ok := a.search.Selected()
		if !ok {
			return
		}
		switch r.Kind {
		case views.ResultPost:
			a.sharePost(r.ID)
		case views.ResultTag:
			a.search.Input().SetText(strings.TrimPrefix(r.Title, "#"))
			a.app.SetFocus(a.search.Input())
		default:
			a.flash.Info(fmt.Sprintf("%s (%s)", r.Title, r.ID))
			a.flashBar.Update(a.flash.Current())
		}
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptFilter:
			a.chats.SetFilter(text)
		case ui.PromptCommand:
			a.execute(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.info, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(a.logo, 26, 0, false)

	a.body = tview.NewFlex().SetDirection(tview.FlexRow)
	a.layoutBody()

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.body, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
	a.pages.Reset(pageLogin)
}

func (a *App) layoutBody() {
	a.body.Clear()
	if a.promptShown {
		a.body.AddItem(a.prompt, 3, 0, false)
	}
	a.body.AddItem(a.pages, 0, 1, true)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	current := a.pages.Current()
	focused := a.app.GetFocus()

	if event.Key() == tcell.KeyEscape {
		switch {
		case a.promptShown:
			return event
		case focused == a.thread.Composer():
			a.app.SetFocus(a.thread.Messages())
			return nil
		case current == pageSearch && focused == a.search.Results():
			a.app.SetFocus(a.search.Input())
			return nil
		}
		a.back()
		return nil
	}

	// Text inputs get every other key.
	switch focused.(type) {
	case *tview.InputField, *tview.Button:
		return event
	}
	if current == pageLogin {
		return event
	}
	if current == pageSearch && event.Key() == tcell.KeyTab {
		a.app.SetFocus(a.search.Results())
		return nil
	}

	if a.registry.HandleEvent(current, event) {
		return nil
	}
	return event
}

func (a *App) back() {
	switch a.pages.Pop() {
	case pageThread:
		a.thread.Reset()
		a.run("close", a.vm.Close)
	case "":
		if a.pages.Current() == pageChats {
			a.chats.ClearFilter()
		}
	}
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case pageThread:
		a.app.SetFocus(a.thread.Messages())
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	case "":
	default:
		a.app.SetFocus(a.pages.Component(a.pages.Current()))
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.promptShown = true
	a.layoutBody()
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.promptShown = false
	a.layoutBody()
	a.focusCurrent()
}

func (a *App) execute(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.pages.Push(pageHelp)
	case "chats":
		a.showRoot(pageChats)
	case "feed":
		a.showRoot(pageFeed)
		a.run("load feed", func(ctx context.Context) error { return a.vm.LoadFeed(ctx, false) })
	case "search":
		a.pages.Push(pageSearch)
		if cmd.Args != "" {
			a.search.Query(cmd.Args)
		}
	case "chat":
		a.openByName(cmd.Args)
	case "theme":
		name := strings.ToLower(cmd.Args)
		if name != store.ThemeLight && name != store.ThemeDark {
			a.flash.Warn("usage: theme light|dark")
			break
		}
		a.run("theme", func(ctx context.Context) error { return a.vm.SetTheme(ctx, name) })
	case "logout":
		a.run("logout", a.vm.Logout)
	case "reload":
		a.run("reload", func(ctx context.Context) error { return a.vm.LoadConversations(ctx, true) })
	default:
		a.flash.Warn("unknown command: " + cmd.Name)
	}
	a.flashBar.Update(a.flash.Current())
}

// showRoot replaces the stack with a top-level page while signed in.
func (a *App) showRoot(key string) {
	if a.pages.Current() == pageLogin {
		return
	}
	if a.thread.ConversationID() != "" {
		a.thread.Reset()
		a.run("close", a.vm.Close)
	}
	a.pages.Reset(key)
}

func (a *App) openByName(name string) {
	convs, _ := a.vm.Conversations()
	for _, c := range convs {
		if strings.EqualFold(c.Label, name) {
			a.openConversation(c.ID)
			return
		}
	}
	a.flash.Warn("no conversation named " + name)
}

func (a *App) openConversation(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		err := a.vm.Open(ctx, id)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash.Err(fmt.Errorf("open: %s", errMessage(err)))
				a.flashBar.Update(a.flash.Current())
				return
			}
			a.pages.Push(pageThread)
		})
	}()
}

func (a *App) loadOlder() {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		added, err := a.vm.LoadOlder(ctx)
		a.app.QueueUpdateDraw(func() {
			switch {
			case err != nil:
				a.flash.Err(fmt.Errorf("load older: %s", errMessage(err)))
			case added == 0:
				a.flash.Info("no older messages")
			default:
				a.flash.Info(fmt.Sprintf("loaded %d older messages", added))
			}
			a.flashBar.Update(a.flash.Current())
		})
	}()
}

func (a *App) retryLast() {
	id := a.thread.LastFailed()
	if id == "" {
		a.flash.Info("nothing to retry")
		a.flashBar.Update(a.flash.Current())
		return
	}
	a.run("retry", func(ctx context.Context) error { return a.vm.Retry(ctx, id) })
}

func (a *App) showDetails() {
	conv, ok := a.vm.Conversation(a.thread.ConversationID())
	if !ok {
		if t := a.vm.Thread(); t != nil && t.Conversation != nil {
			conv, ok = *t.Conversation, true
		}
	}
	if !ok {
		return
	}
	a.details.Update(&conv)
	a.pages.Push(pageDetails)
}

func (a *App) likeSelected() {
	id := a.feed.Selected()
	if id == "" {
		return
	}
	a.run("like", func(ctx context.Context) error {
		_, err := a.vm.Like(ctx, id)
		return err
	})
}

func (a *App) shareSelected() {
	if id := a.feed.Selected(); id != "" {
		a.sharePost(id)
	}
}

func (a *App) sharePost(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		resp, err := a.vm.Share(ctx, id)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash.Err(fmt.Errorf("share: %s", errMessage(err)))
				a.flashBar.Update(a.flash.Current())
				return
			}
			a.share.Show(resp.URL, resp.QR)
			a.pages.Push(pageShare)
		})
	}()
}

// run calls fn off the UI goroutine and flashes its error.
func (a *App) run(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.app.QueueUpdateDraw(func() {
				a.flash.Err(fmt.Errorf("%s: %s", what, errMessage(err)))
				a.flashBar.Update(a.flash.Current())
			})
		}
	}()
}

// errMessage strips the RPC framing from daemon errors.
func errMessage(err error) string {
	if s, ok := grpcstatus.FromError(err); ok {
		return s.Message()
	}
	return err.Error()
}

// Run starts the TUI application.
func (a *App) Run() error {
	go a.bootstrap()
	go a.refreshLoop()
	go a.watchLoop()
	go a.tickLoop()

	return a.app.Run()
}

func (a *App) bootstrap() {
	ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
	defer cancel()
	if err := a.vm.LoadTheme(ctx); err != nil {
		a.flash.Err(err)
	}
	if err := a.vm.LoadStatus(ctx); err != nil {
		a.flash.Err(fmt.Errorf("daemon: %s", errMessage(err)))
	}
}

func (a *App) refreshLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case change := <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(func() { a.render(change) })
		}
	}
}

func (a *App) render(change model.Change) {
	if change&model.ChangeTheme != 0 {
		a.applyTheme(ui.ThemeFor(a.vm.Theme()))
	}
	if change&model.ChangeStatus != 0 {
		a.renderStatus()
	}
	if change&model.ChangeConversations != 0 {
		convs, unread := a.vm.Conversations()
		a.chats.Update(convs, unread)
	}
	if change&model.ChangeMessages != 0 {
		if t := a.vm.Thread(); t != nil {
			a.thread.Update(t, a.vm.Me())
		} else if a.pages.Current() == pageThread {
			a.thread.Reset()
			a.pages.Pop()
		}
	}
	if change&model.ChangeFeed != 0 {
		posts, more := a.vm.Feed()
		a.feed.Update(posts, more)
	}
}

func (a *App) renderStatus() {
	st := a.vm.Status()
	a.statusBar.SetStatus(st)
	a.renderInfo()
	if st == nil {
		return
	}

	signedIn := st.SignedIn && st.State != status.SignedOut
	switch {
	case !signedIn && a.pages.Current() != pageLogin:
		a.thread.Reset()
		a.pages.Reset(pageLogin)
		a.flash.Warn("signed out")
		a.flashBar.Update(a.flash.Current())
	case signedIn && a.pages.Current() == pageLogin:
		a.pages.Reset(pageChats)
		a.run("load conversations", func(ctx context.Context) error { return a.vm.LoadConversations(ctx, true) })
	}
}

func (a *App) renderInfo() {
	st := a.vm.Status()
	data := &ui.SessionData{Session: a.session, Status: "-", StartedAt: a.started}
	if st != nil {
		data.Status = string(st.State)
		data.Connected = st.Connected
		data.Unread = st.UnreadMessages
		if st.User != nil {
			data.User = st.User.DisplayName()
		}
		if st.UptimeMs > 0 {
			data.StartedAt = time.Now().Add(-time.Duration(st.UptimeMs) * time.Millisecond)
		}
		if st.RateLimited {
			data.Cooldown = time.Until(st.CooldownUntil)
		}
	}
	convs, _ := a.vm.Conversations()
	for _, c := range convs {
		if c.Online {
			data.Online++
		}
	}
	a.info.Update(data)
}

func (a *App) applyTheme(theme *ui.Theme) {
	if theme.Name == a.theme.Name {
		return
	}
	a.theme = theme
	a.pages.Each(func(c ui.Component) { c.SetTheme(theme) })
	a.info.SetTheme(theme)
	a.menu.SetTheme(theme)
	a.logo.SetTheme(theme)
	a.crumbs.SetTheme(theme)
	a.prompt.SetTheme(theme)
	a.flashBar.SetTheme(theme)
	a.statusBar.SetTheme(theme)
	a.pages.SetBackgroundColor(theme.BgColor)
	a.root.SetBackgroundColor(theme.BgColor)
}

// watchLoop follows daemon events, reconnecting after stream errors.
func (a *App) watchLoop() {
	for {
		err := a.vm.Watch(a.ctx)
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.flash.Warn("event stream lost: " + errMessage(err))
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
		// Events may have been missed while the stream was down.
		_ = a.vm.LoadStatus(a.ctx)
		if a.vm.Thread() != nil {
			_ = a.vm.LoadMessages(a.ctx)
		}
	}
}

func (a *App) tickLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.statusBar.Tick()
				a.renderInfo()
				a.flashBar.Update(a.flash.Current())
			})
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
