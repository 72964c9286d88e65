package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays a compact ASCII art logo.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorderPadding(1, 0, 1, 0)

	l := &Logo{TextView: tv}
	l.SetTheme(theme)
	return l
}

// SetTheme repaints the logo.
func (l *Logo) SetTheme(theme *Theme) {
	l.theme = theme
	l.SetBackgroundColor(theme.BgColor)
	l.Clear()
	titleColor := colorName(theme.TitleColor)
	fgColor := colorName(theme.FgColor)

	_, _ = fmt.Fprintf(l,
		"[%s::b] ╦ ╦╔═╗╦  ╦╔═╗[-:-:-]\n"+
			"[%s::b] ╚╦╝║ ║╚╗╔╝║ ║[-:-:-]\n"+
			"[%s::b]  ╩ ╚═╝ ╚╝ ╚═╝[-:-:-]\n"+
			"[%s]Terminal client[-:-:-]",
		titleColor, titleColor, titleColor, fgColor,
	)
}
