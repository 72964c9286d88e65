package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/tui/ui"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
	conv  *rpc.ConversationView
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetTitle(" Conversation Details ")

	ci := &ConversationInfo{TextView: tv}
	ci.SetTheme(theme)
	return ci
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
	}
}

// SetTheme implements Component.
func (ci *ConversationInfo) SetTheme(theme *ui.Theme) {
	ci.theme = theme
	ci.SetBorderColor(theme.BorderColor)
	ci.SetBackgroundColor(theme.BgColor)
	ci.SetTextColor(theme.FgColor)
	ci.SetTitleColor(theme.TitleColor)
	ci.Update(ci.conv)
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(conv *rpc.ConversationView) {
	ci.conv = conv
	ci.Clear()
	if conv == nil {
		return
	}

	fg := ui.ColorTag(ci.theme.FgColor)
	ct := ui.ColorTag(ci.theme.CounterColor)

	kind := "Direct message"
	if conv.IsGroup {
		kind = "Group"
	}
	online := "no"
	if conv.Online {
		online = "yes"
	}
	names := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		names = append(names, p.Name(p.ID))
	}
	admin := "-"
	if conv.Admin != nil {
		admin = conv.Admin.Name(conv.Admin.ID)
	}
	last := "-"
	if conv.LastMessage != nil {
		last = singleLine(conv.LastMessage.Text)
	}

	_, _ = fmt.Fprintf(ci,
		"\n [%s::b]Name:[-:-:-]         [%s]%s[-]\n"+
			" [%s::b]ID:[-:-:-]           [%s]%s[-]\n"+
			" [%s::b]Type:[-:-:-]         [%s]%s[-]\n"+
			" [%s::b]Members:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Admin:[-:-:-]        [%s]%s[-]\n"+
			" [%s::b]Online:[-:-:-]       [%s]%s[-]\n"+
			" [%s::b]Unread:[-:-:-]       [%s]%d[-]\n"+
			" [%s::b]Last active:[-:-:-]  [%s]%s[-]\n"+
			" [%s::b]Last message:[-:-:-] [%s]%s[-]",
		fg, ct, clean(conv.Label),
		fg, ct, tview.Escape(conv.ID),
		fg, ct, kind,
		fg, ct, clean(strings.Join(names, ", ")),
		fg, ct, clean(admin),
		fg, ct, online,
		fg, ct, conv.UnreadCount,
		fg, ct, relative(conv.UpdatedAt),
		fg, ct, clean(last),
	)
	ci.SetTitle(fmt.Sprintf(" %s Details ", clean(conv.Label)))
}
