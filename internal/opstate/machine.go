package opstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// RunFunc performs the operation. It returns nil when the work is complete,
// the error from Token.Checkpoint when it stopped at a boundary, or any other
// error for a failure that should end the run.
type RunFunc func(ctx context.Context, tok *Token) error

// Hooks are optional callbacks invoked under the machine's transitions.
type Hooks struct {
	// Discard drops saved progress when the operation is cancelled.
	Discard func()
	// OnTransition observes every state change.
	OnTransition func(from, to State)
}

// Token is the single consult point handed to a running operation.
type Token struct {
	ctx   context.Context
	pause *atomic.Bool
}

// Context returns the run context; it is cancelled by Machine.Cancel.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Checkpoint returns ErrCancelled or ErrPaused when the run must stop at
// this boundary, and nil otherwise.
func (t *Token) Checkpoint() error {
	if t.ctx.Err() != nil {
		return ErrCancelled
	}
	if t.pause.Load() {
		return ErrPaused
	}
	return nil
}

// Cancelled reports only cancellation. Used inside units of work that must
// not stop half way for a pause.
func (t *Token) Cancelled() error {
	if t.ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

// Machine drives one RunFunc through the operation lifecycle.
type Machine struct {
	run   RunFunc
	hooks Hooks

	mu      sync.Mutex
	state   State
	parent  context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	pauseRq atomic.Bool
	// unwatch detaches the parent-context watch armed while paused.
	unwatch func() bool
}

// New constructs an idle machine.
func New(run RunFunc, hooks Hooks) *Machine {
	done := make(chan struct{})
	close(done)
	return &Machine{run: run, hooks: hooks, state: StateIdle, done: done}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the failure that moved the machine to StateFailed.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// PauseRequested reports whether a pause is pending for the running goroutine.
func (m *Machine) PauseRequested() bool {
	return m.pauseRq.Load()
}

// Start launches the operation. ctx bounds the whole lifecycle including
// later resumes; cancelling it is equivalent to Cancel, whether the machine
// is running or parked in StatePaused.
func (m *Machine) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return fmt.Errorf("start from %s: %w", m.state, ErrInvalidTransition)
	}
	m.parent = ctx
	m.launchLocked()
	return nil
}

// Pause requests a pause. It does not block; the machine reaches
// StatePaused once the run observes the request at its next checkpoint.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRunning:
		m.pauseRq.Store(true)
		return nil
	case StatePaused:
		return nil
	default:
		return fmt.Errorf("pause from %s: %w", m.state, ErrInvalidTransition)
	}
}

// Resume continues a paused operation. A resume issued while a pause is
// still pending waits for the run to park first.
func (m *Machine) Resume() error {
	m.mu.Lock()
	if m.state == StateRunning && m.pauseRq.Load() {
		done := m.done
		m.mu.Unlock()
		<-done
		m.mu.Lock()
	}
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return fmt.Errorf("resume from %s: %w", m.state, ErrInvalidTransition)
	}
	m.launchLocked()
	return nil
}

// Cancel stops the operation from any non-terminal state. A running
// operation transitions once it unwinds; use Wait to observe that.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRunning:
		if m.cancel != nil {
			m.cancel()
		}
		return nil
	case StateIdle, StatePaused:
		m.unwatchLocked()
		m.setStateLocked(StateCancelled)
		m.discardLocked()
		return nil
	default:
		return fmt.Errorf("cancel from %s: %w", m.state, ErrInvalidTransition)
	}
}

// Done returns a channel closed when no goroutine is running for the
// operation (paused or terminal).
func (m *Machine) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Wait blocks until the current run parks or finishes and returns the
// resulting state.
func (m *Machine) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.Done():
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

func (m *Machine) launchLocked() {
	m.unwatchLocked()
	runCtx, cancel := context.WithCancel(m.parent)
	m.cancel = cancel
	m.pauseRq.Store(false)
	done := make(chan struct{})
	m.done = done
	m.setStateLocked(StateRunning)
	tok := &Token{ctx: runCtx, pause: &m.pauseRq}
	go func() {
		err := m.run(runCtx, tok)
		m.finish(err, runCtx, cancel)
		close(done)
	}()
}

func (m *Machine) finish(err error, runCtx context.Context, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancelled := runCtx.Err() != nil
	cancel()
	m.cancel = nil
	switch {
	case err == nil && !cancelled:
		m.setStateLocked(StateCompleted)
	case errors.Is(err, ErrPaused) && !cancelled:
		m.pauseRq.Store(false)
		m.setStateLocked(StatePaused)
		m.unwatch = context.AfterFunc(m.parent, m.parentDone)
	case err == nil, cancelled, errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		m.setStateLocked(StateCancelled)
		m.discardLocked()
	default:
		m.err = err
		m.setStateLocked(StateFailed)
	}
}

// parentDone cancels a parked operation when the Start context ends.
func (m *Machine) parentDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return
	}
	m.unwatch = nil
	m.setStateLocked(StateCancelled)
	m.discardLocked()
}

func (m *Machine) unwatchLocked() {
	if m.unwatch != nil {
		m.unwatch()
		m.unwatch = nil
	}
}

func (m *Machine) setStateLocked(next State) {
	prev := m.state
	m.state = next
	if m.hooks.OnTransition != nil && prev != next {
		m.hooks.OnTransition(prev, next)
	}
}

func (m *Machine) discardLocked() {
	if m.hooks.Discard != nil {
		m.hooks.Discard()
	}
}
