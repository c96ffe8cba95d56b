package opstate

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of an operation.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

var (
	// ErrCancelled reports that a cooperative cancellation was observed.
	ErrCancelled = errors.New("operation cancelled")
	// ErrPaused is returned by Token.Checkpoint when a pause was requested.
	// It never escapes the machine.
	ErrPaused = errors.New("operation paused")
	// ErrInvariant marks programming errors detected at runtime.
	ErrInvariant = errors.New("invariant violation")
	// ErrInvalidTransition is returned for control calls the current state
	// does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:    {StateRunning, StateCancelled},
	StateRunning: {StatePaused, StateCompleted, StateCancelled, StateFailed},
	StatePaused:  {StateRunning, StateCancelled},
}

// CanTransition reports whether from -> to is part of the lifecycle.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invariantf builds an error tagged with ErrInvariant.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
