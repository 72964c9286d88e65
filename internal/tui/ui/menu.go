package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 0-9 shortcuts (displayed in a different color)
}

// Menu displays keyboard shortcut hints in a vertical list.
type Menu struct {
	*tview.TextView
	theme *Theme
	hints []MenuHint
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorderPadding(0, 0, 2, 0)

	m := &Menu{TextView: tv}
	m.SetTheme(theme)
	return m
}

// SetTheme repaints the menu.
func (m *Menu) SetTheme(theme *Theme) {
	m.theme = theme
	m.SetBackgroundColor(theme.BgColor)
	m.Update(m.hints)
}

// Update renders menu hints as a vertical list (one per line).
func (m *Menu) Update(hints []MenuHint) {
	m.hints = hints
	m.Clear()

	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)
	fgColor := colorName(m.theme.FgColor)

	for _, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] [%s]%s[-]\n", kc, h.Key, fgColor, h.Description)
	}
}
