package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/yovo-social/yovo/internal/bus"
)

// State represents the session's runtime state.
type State string

const (
	SignedOut      State = "SIGNED_OUT"
	Authenticating State = "AUTHENTICATING"
	Connecting     State = "CONNECTING"
	Ready          State = "READY"
	Reconnecting   State = "RECONNECTING"
	RateLimited    State = "RATE_LIMITED"
	Error          State = "ERROR"
)

// validTransitions defines allowed state transitions. A forced logout can
// land in SignedOut from anywhere.
var validTransitions = map[State][]State{
	SignedOut:      {Authenticating, Error},
	Authenticating: {Connecting, SignedOut, Error},
	Connecting:     {Ready, Reconnecting, SignedOut, Error},
	Ready:          {Reconnecting, RateLimited, SignedOut, Error},
	Reconnecting:   {Connecting, Ready, SignedOut, Error},
	RateLimited:    {Ready, Reconnecting, SignedOut, Error},
	Error:          {SignedOut},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in SignedOut.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: SignedOut,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// In reports whether the current state is one of states.
func (m *Machine) In(states ...State) bool {
	return slices.Contains(states, m.Current())
}

// CanTransition reports whether to is reachable from the current state.
func (m *Machine) CanTransition(to State) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Contains(validTransitions[m.current], to)
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.KindStatusChanged, StatusChange{From: from, To: to})
	return nil
}

// Walk applies each transition in order, stopping at the first invalid one.
func (m *Machine) Walk(steps ...State) error {
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			return err
		}
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
