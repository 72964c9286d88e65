package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/tui/ui"
)

// ShareView shows a share link and its QR code.
type ShareView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewShareView creates the share panel.
func NewShareView(theme *ui.Theme) *ShareView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetTitle(" Share ")

	sv := &ShareView{TextView: tv}
	sv.SetTheme(theme)
	return sv
}

// Name implements Component.
func (sv *ShareView) Name() string { return "Share" }

// Hints implements Component.
func (sv *ShareView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

// SetTheme implements Component.
func (sv *ShareView) SetTheme(theme *ui.Theme) {
	sv.theme = theme
	sv.SetBorderColor(theme.BorderColor)
	sv.SetBackgroundColor(theme.BgColor)
	sv.SetTextColor(theme.FgColor)
	sv.SetTitleColor(theme.TitleColor)
}

// Show renders link with its QR block.
func (sv *ShareView) Show(link, qr string) {
	sv.Clear()
	_, _ = fmt.Fprintf(sv, "\n[%s::b]%s[-:-:-]\n\n%s", ui.ColorTag(sv.theme.CounterColor), tview.Escape(link), tview.Escape(qr))
	sv.ScrollToBeginning()
}
