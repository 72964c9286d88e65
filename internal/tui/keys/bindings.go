package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Name        string
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings organized by scope. Bindings keep their
// registration order so hints render stably.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a global keybinding, replacing one of the same name.
func (r *Registry) AddGlobal(name string, action *Action) {
	action.Name = name
	r.global = upsert(r.global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view, name string, action *Action) {
	action.Name = name
	r.views[view] = upsert(r.views[view], action)
}

func upsert(list []*Action, action *Action) []*Action {
	for i, a := range list {
		if a.Name == action.Name {
			list[i] = action
			return list
		}
	}
	return append(list, action)
}

// Hints returns visible keybinding descriptions for a view, view bindings
// first.
func (r *Registry) Hints(view string) []string {
	var hints []string
	for _, a := range r.views[view] {
		if a.Visible {
			hints = append(hints, a.Description)
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.Description)
		}
	}
	return hints
}

// HandleEvent dispatches a key event to matching action in the given view.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	// Check view-specific bindings first.
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
