package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/tui/ui"
)

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"/", "Filter mode"},
		{"Esc", "Go back"},
		{"?", "Help"},
		{"q", "Quit"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"1-9", "Jump to Nth conversation"},
		{"0", "Clear filter"},
		{"R", "Reload from server"},
	}},
	{"Message Thread", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
		{"k", "Load older messages"},
		{"r", "Retry the last failed message"},
		{"d", "Conversation details"},
	}},
	{"Feed", [][2]string{
		{"l", "Like or unlike"},
		{"n", "Load the next page"},
		{"y", "Share link and QR"},
	}},
	{"Commands", [][2]string{
		{":chats", "Conversation list"},
		{":feed", "Feed"},
		{":search <query>", "Search posts, users and tags"},
		{":chat <name>", "Open conversation by name"},
		{":theme light|dark", "Switch theme"},
		{":logout", "Sign out"},
		{":quit / :q", "Quit"},
	}},
}

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetTitle(" Help ")

	hv := &HelpView{TextView: tv}
	hv.SetTheme(theme)
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// SetTheme implements Component.
func (hv *HelpView) SetTheme(theme *ui.Theme) {
	hv.theme = theme
	hv.SetBorderColor(theme.BorderColor)
	hv.SetBackgroundColor(theme.BgColor)
	hv.SetTextColor(theme.FgColor)
	hv.SetTitleColor(theme.TitleColor)
	hv.render()
}

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-20s[-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	hv.SetText(b.String())
}
