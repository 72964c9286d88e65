package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/tui/ui"
)

// MessageThread displays messages and a composer for a single conversation.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	title    string
	convID   string
	me       string
	data     *rpc.MessagesResponse
	onSend   func(text string)
	now      func() time.Time
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetTitle(" Messages ")

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetTitle(" Compose (i to focus) ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			text := strings.TrimSpace(composer.GetText())
			if text != "" {
				mt.onSend(text)
				composer.SetText("")
			}
		}
	})

	mt.SetTheme(theme)
	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.title != "" {
		return mt.title
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "k", Description: "Older"},
		{Key: "r", Description: "Retry failed"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
	}
}

// SetTheme implements Component.
func (mt *MessageThread) SetTheme(theme *ui.Theme) {
	mt.theme = theme
	mt.messages.SetBorderColor(theme.BorderColor)
	mt.messages.SetBackgroundColor(theme.BgColor)
	mt.messages.SetTextColor(theme.FgColor)
	mt.messages.SetTitleColor(theme.TitleColor)
	mt.composer.SetBorderColor(theme.BorderColor)
	mt.composer.SetBackgroundColor(theme.BgColor)
	mt.composer.SetFieldBackgroundColor(theme.BgColor)
	mt.composer.SetFieldTextColor(theme.FgColor)
	mt.composer.SetLabelColor(theme.MenuKeyColor)
	mt.composer.SetTitleColor(theme.TitleColor)
	mt.SetBackgroundColor(theme.BgColor)
	if mt.data != nil {
		mt.Update(mt.data, mt.me)
	}
}

// SetOnSend sets the callback when a message is submitted.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// ConversationID returns the id of the shown conversation.
func (mt *MessageThread) ConversationID() string {
	return mt.convID
}

// Update renders the open window. me is the signed-in user's id.
func (mt *MessageThread) Update(resp *rpc.MessagesResponse, me string) {
	scroll := mt.data == nil || mt.data.ConversationID != resp.ConversationID ||
		len(mt.data.Messages) == 0 || len(resp.Messages) == 0 ||
		mt.data.Messages[0].ID == resp.Messages[0].ID
	mt.data = resp
	mt.me = me
	mt.convID = resp.ConversationID

	if resp.Conversation != nil {
		mt.title = resp.Conversation.Label
	}
	title := mt.title
	if resp.Conversation != nil && resp.Conversation.Online {
		title += " ●"
	}
	if resp.Loading {
		title += " (loading)"
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s ", tview.Escape(title)))

	mt.messages.Clear()
	if resp.HasMore {
		_, _ = fmt.Fprintf(mt.messages, "[%s]  k: load older messages[-]\n\n", ui.ColorTag(mt.theme.MutedColor))
	}
	now := mt.now()
	for _, m := range resp.Messages {
		_, _ = fmt.Fprint(mt.messages, mt.line(m, now))
	}

	// Prepending older pages keeps the reader's position.
	if scroll {
		mt.messages.ScrollToEnd()
	}
}

func (mt *MessageThread) line(m chat.Message, now time.Time) string {
	sender := m.Sender.Name(m.Sender.ID)
	if m.Sender.ID == mt.me {
		sender = "You"
	}

	var state string
	switch m.State {
	case chat.Pending:
		state = fmt.Sprintf(" [%s]sending…[-]", ui.ColorTag(mt.theme.PendingColor))
	case chat.Failed:
		reason := "not sent"
		if m.Error != "" {
			reason = m.Error
		}
		state = fmt.Sprintf(" [%s]! %s (r to retry)[-]", ui.ColorTag(mt.theme.FailedColor), tview.Escape(reason))
	}

	return fmt.Sprintf("[::b]%s[-:-:-] [%s]%s[-]%s\n%s\n\n",
		clean(sender), ui.ColorTag(mt.theme.MutedColor), formatTimestamp(m.CreatedAt, now), state,
		clean(m.Text))
}

// LastFailed returns the client id of the newest failed message.
func (mt *MessageThread) LastFailed() string {
	if mt.data == nil {
		return ""
	}
	return lastFailed(mt.data.Messages)
}

func lastFailed(msgs []chat.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].State == chat.Failed {
			return msgs[i].ID
		}
	}
	return ""
}

// Reset clears the view when the conversation closes.
func (mt *MessageThread) Reset() {
	mt.data = nil
	mt.convID = ""
	mt.title = ""
	mt.messages.Clear()
	mt.composer.SetText("")
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
