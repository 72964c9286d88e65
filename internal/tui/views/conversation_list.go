package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/tui/ui"
)

// ConversationList is the main chat list view.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	convs   []rpc.ConversationView
	visible []rpc.ConversationView
	filter  string
	unread  int
	now     func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)

	cl := &ConversationList{Table: table, now: time.Now}
	cl.SetTheme(theme)
	return cl
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "R", Description: "Reload"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
		{Key: "0-9", Description: "Jump", Numeric: true},
	}
}

// SetTheme implements Component.
func (cl *ConversationList) SetTheme(theme *ui.Theme) {
	cl.theme = theme
	cl.SetBorderColor(theme.BorderColor)
	cl.SetBackgroundColor(theme.BgColor)
	cl.SetTitleColor(theme.TitleColor)
	cl.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	cl.render()
}

// Update refreshes the list with new data.
func (cl *ConversationList) Update(convs []rpc.ConversationView, unread int) {
	cl.convs = convs
	cl.unread = unread
	cl.render()
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.SetFilter("")
}

func filterConversations(convs []rpc.ConversationView, filter string) []rpc.ConversationView {
	if filter == "" {
		return convs
	}
	var out []rpc.ConversationView
	for _, c := range convs {
		if containsFold(c.Label, filter) || (c.LastMessage != nil && containsFold(c.LastMessage.Text, filter)) {
			out = append(out, c)
		}
	}
	return out
}

func (cl *ConversationList) render() {
	cl.Clear()
	cl.visible = filterConversations(cl.convs, cl.filter)

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" UNREAD", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	now := cl.now()
	for i, c := range cl.visible {
		row := i + 1
		marker := "  "
		if c.Online {
			marker = fmt.Sprintf("[%s]●[-] ", ui.ColorTag(cl.theme.OnlineColor))
		}
		name := marker + clean(c.Label)
		if c.IsGroup {
			name += fmt.Sprintf(" [%s](%d)[-]", ui.ColorTag(cl.theme.MutedColor), len(c.Participants))
		}

		preview, at := "", c.UpdatedAt
		if c.LastMessage != nil {
			preview = singleLine(c.LastMessage.Text)
			at = c.LastMessage.CreatedAt
		}

		unread := ""
		fg := cl.theme.FgColor
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf("%d", c.UnreadCount)
			fg = cl.theme.CounterColor
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+name).SetExpansion(1).SetTextColor(fg))
		cl.SetCell(row, 1, tview.NewTableCell(" "+clean(preview)).SetExpansion(2).SetMaxWidth(60).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(formatTimestamp(at, now)).SetTextColor(cl.theme.MutedColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, tview.NewTableCell(unread).SetTextColor(cl.theme.CounterColor).SetAlign(tview.AlignRight))
	}

	switch {
	case cl.filter != "":
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	case cl.unread > 0:
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) unread: %d ", len(cl.convs), cl.unread))
	default:
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

// Selected returns the id of the highlighted conversation.
func (cl *ConversationList) Selected() string {
	row, _ := cl.GetSelection()
	return cl.ByIndex(row)
}

// ByIndex returns the id of the Nth visible conversation (1-based).
func (cl *ConversationList) ByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].ID
}
