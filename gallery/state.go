package gallery

import (
	"errors"
	"fmt"
)

// State is the display state of one gallery slot.
type State int

const (
	// StatePending shows the raw reference while resolution is in flight.
	StatePending State = iota
	// StateResolved holds a signed URL that has not been load-checked yet.
	StateResolved
	// StateIdentityFallback holds the raw reference because signing failed.
	StateIdentityFallback
	// StateLoaded is terminal: the display URL loaded.
	StateLoaded
	// StateError is terminal: the slot shows the placeholder.
	StateError
)

var stateNames = map[State]string{
	StatePending:          "pending",
	StateResolved:         "resolved",
	StateIdentityFallback: "identity_fallback",
	StateLoaded:           "loaded",
	StateError:            "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateLoaded || s == StateError
}

// ErrIllegalTransition is returned for a transition the state machine does
// not allow.
var ErrIllegalTransition = errors.New("gallery: illegal slot transition")

var transitions = map[State][]State{
	StatePending:          {StateResolved, StateIdentityFallback, StateError},
	StateResolved:         {StateLoaded, StateError},
	StateIdentityFallback: {StateLoaded, StateError},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Slot is one position of a gallery.
type Slot struct {
	Index int
	Ref   string
	State State
	// DisplayURL is what the slot shows now. It is never empty: the raw
	// reference before resolution, the resolved URL after, the placeholder
	// on error.
	DisplayURL string
}

func (s *Slot) transition(to State, display string) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("%w: %s -> %s (slot %d)", ErrIllegalTransition, s.State, to, s.Index)
	}
	s.State = to
	if display != "" {
		s.DisplayURL = display
	}
	return nil
}

// SlotUpdate is delivered to observers on every state change.
type SlotUpdate struct {
	Index      int
	Ref        string
	State      State
	DisplayURL string
}
