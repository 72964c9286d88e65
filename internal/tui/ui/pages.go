package ui

import "github.com/rivo/tview"

// Pages is a stack-based page manager wrapping tview.Pages.
// It provides push/pop semantics and notifies on stack changes.
type Pages struct {
	*tview.Pages
	stack      []string
	components map[string]Component
	onChange   func(top Component, stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(top Component, stack []string)) {
	p.onChange = fn
}

// Add registers a component under its key without showing it.
func (p *Pages) Add(key string, c Component) {
	p.components[key] = c
	p.AddPage(key, c, true, false)
}

// Component returns the component registered under key.
func (p *Pages) Component(key string) Component {
	return p.components[key]
}

// Each calls fn for every registered component.
func (p *Pages) Each(fn func(Component)) {
	for _, c := range p.components {
		fn(c)
	}
}

// Push adds a page to the top of the stack and shows it. Pushing the page
// already on top is a no-op.
func (p *Pages) Push(key string) {
	if p.Current() == key {
		return
	}
	if len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, key)
	p.ShowPage(key)
	p.SendToFront(key)
	p.notify()
}

// Pop removes the top page and shows the previous one. The root page is
// never popped. Returns the popped key, or empty.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current)
	p.SendToFront(current)
	p.notify()
	return top
}

// Current returns the key of the current (top) page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the current page stack.
func (p *Pages) Stack() []string {
	s := make([]string, len(p.stack))
	copy(s, p.stack)
	return s
}

// Reset clears the stack and shows only the given page.
func (p *Pages) Reset(key string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{key}
	p.ShowPage(key)
	p.SendToFront(key)
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange == nil {
		return
	}
	names := make([]string, len(p.stack))
	for i, key := range p.stack {
		names[i] = key
		if c := p.components[key]; c != nil {
			names[i] = c.Name()
		}
	}
	p.onChange(p.components[p.Current()], names)
}
