package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Crumbs is a breadcrumb bar showing the current navigation path.
type Crumbs struct {
	*tview.TextView
	theme *Theme
	stack []string
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	c := &Crumbs{TextView: tview.NewTextView().SetDynamicColors(true)}
	c.SetTheme(theme)
	return c
}

// SetTheme repaints the bar.
func (c *Crumbs) SetTheme(theme *Theme) {
	c.theme = theme
	c.SetBackgroundColor(theme.BgColor)
	c.Update(c.stack)
}

// Update renders the breadcrumb trail from the page stack.
func (c *Crumbs) Update(stack []string) {
	c.stack = stack
	c.Clear()
	if len(stack) == 0 {
		return
	}

	parts := make([]string, 0, len(stack))
	for i, name := range stack {
		if i == len(stack)-1 {
			parts = append(parts, fmt.Sprintf("[%s:%s:b] %s [-:-:-]",
				colorName(c.theme.CrumbActiveFg), colorName(c.theme.CrumbActiveBg), tview.Escape(name)))
		} else {
			parts = append(parts, fmt.Sprintf("[%s:%s:] %s [-:-:-]",
				colorName(c.theme.CrumbInactiveFg), colorName(c.theme.CrumbInactiveBg), tview.Escape(name)))
		}
	}
	_, _ = fmt.Fprint(c, strings.Join(parts, " > "))
}

// colorName returns a tview-compatible color name string.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}

// ColorTag returns c as a tview color tag body, e.g. "#ff0000".
func ColorTag(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
