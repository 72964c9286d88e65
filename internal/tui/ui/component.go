package ui

import "github.com/rivo/tview"

// Component is a page the app can push onto the stack.
type Component interface {
	tview.Primitive
	Name() string
	Hints() []MenuHint
	SetTheme(theme *Theme)
}
