package opstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// stepRun counts units of work, checking the token before each unit.
type stepRun struct {
	total int
	next  atomic.Int64
	gate  chan struct{}
}

func (s *stepRun) run(ctx context.Context, tok *Token) error {
	for int(s.next.Load()) < s.total {
		if err := tok.Checkpoint(); err != nil {
			return err
		}
		if s.gate != nil {
			select {
			case <-s.gate:
			case <-ctx.Done():
				return ErrCancelled
			}
		}
		s.next.Add(1)
	}
	return nil
}

// unblock lets a run blocked on gate reach its next checkpoint, unless it
// already parked there.
func unblock(m *Machine, gate chan struct{}) {
	select {
	case gate <- struct{}{}:
	case <-m.Done():
	}
}

func waitState(t *testing.T, m *Machine) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := m.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v (state %s)", err, state)
	}
	return state
}

func TestMachineRunsToCompletion(t *testing.T) {
	work := &stepRun{total: 5}
	m := New(work.run, Hooks{})
	if m.State() != StateIdle {
		t.Fatalf("initial state = %s", m.State())
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if state := waitState(t, m); state != StateCompleted {
		t.Fatalf("state = %s, want completed", state)
	}
	if got := work.next.Load(); got != 5 {
		t.Fatalf("units = %d, want 5", got)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second start err = %v", err)
	}
}

func TestMachinePauseResume(t *testing.T) {
	work := &stepRun{total: 10, gate: make(chan struct{})}
	m := New(work.run, Hooks{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	work.gate <- struct{}{}
	work.gate <- struct{}{}
	if err := m.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	unblock(m, work.gate)
	if state := waitState(t, m); state != StatePaused {
		t.Fatalf("state = %s, want paused", state)
	}
	paused := work.next.Load()
	if paused < 2 || paused > 3 {
		t.Fatalf("units at pause = %d, want 2 or 3", paused)
	}

	work.gate = nil
	if err := m.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state := waitState(t, m); state != StateCompleted {
		t.Fatalf("state = %s, want completed", state)
	}
	if got := work.next.Load(); got != 10 {
		t.Fatalf("units = %d, want 10", got)
	}
}

func TestMachinePauseDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	m := New(func(ctx context.Context, tok *Token) error {
		<-release
		return tok.Checkpoint()
	}, Hooks{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- m.Pause() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("pause: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pause blocked on a busy run")
	}
	if !m.PauseRequested() || m.State() != StateRunning {
		t.Fatalf("expected pending pause while running, state %s", m.State())
	}
	close(release)
	if state := waitState(t, m); state != StatePaused {
		t.Fatalf("state = %s, want paused", state)
	}
}

func TestMachineCancelWhileRunningDiscards(t *testing.T) {
	var discarded atomic.Bool
	work := &stepRun{total: 100, gate: make(chan struct{})}
	m := New(work.run, Hooks{Discard: func() { discarded.Store(true) }})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	work.gate <- struct{}{}
	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if state := waitState(t, m); state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if !discarded.Load() {
		t.Fatal("expected progress to be discarded")
	}
	if m.Err() != nil {
		t.Fatalf("cancellation surfaced as failure: %v", m.Err())
	}
	if err := m.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resume after cancel err = %v", err)
	}
}

func TestMachineCancelWhilePaused(t *testing.T) {
	var discards atomic.Int32
	work := &stepRun{total: 10, gate: make(chan struct{})}
	m := New(work.run, Hooks{Discard: func() { discards.Add(1) }})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	unblock(m, work.gate)
	if state := waitState(t, m); state != StatePaused {
		t.Fatalf("state = %s, want paused", state)
	}
	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if m.State() != StateCancelled || discards.Load() != 1 {
		t.Fatalf("state = %s discards = %d", m.State(), discards.Load())
	}
	if err := m.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel from terminal err = %v", err)
	}
}

func TestMachineParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New(func(ctx context.Context, tok *Token) error {
		<-ctx.Done()
		return tok.Checkpoint()
	}, Hooks{})
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
	if state := waitState(t, m); state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
}

func TestMachineParentContextCancelsWhilePaused(t *testing.T) {
	var discards atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	work := &stepRun{total: 10, gate: make(chan struct{})}
	m := New(work.run, Hooks{Discard: func() { discards.Add(1) }})
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	unblock(m, work.gate)
	if state := waitState(t, m); state != StatePaused {
		t.Fatalf("state = %s, want paused", state)
	}

	cancel()
	deadline := time.Now().Add(5 * time.Second)
	for m.State() != StateCancelled {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s after parent cancel, want cancelled", m.State())
		}
		time.Sleep(time.Millisecond)
	}
	if discards.Load() != 1 {
		t.Fatalf("discards = %d, want 1", discards.Load())
	}
	if err := m.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resume after parent cancel err = %v", err)
	}
}

func TestMachineResumeDetachesParentWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	work := &stepRun{total: 3, gate: make(chan struct{})}
	m := New(work.run, Hooks{})
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	unblock(m, work.gate)
	if state := waitState(t, m); state != StatePaused {
		t.Fatalf("state = %s, want paused", state)
	}
	work.gate = nil
	if err := m.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state := waitState(t, m); state != StateCompleted {
		t.Fatalf("state = %s, want completed", state)
	}
	cancel()
	time.Sleep(10 * time.Millisecond)
	if m.State() != StateCompleted {
		t.Fatalf("state = %s after late parent cancel, want completed", m.State())
	}
}

func TestMachineFailureIsTerminal(t *testing.T) {
	m := New(func(context.Context, *Token) error {
		return Invariantf("bucket %d is empty", 3)
	}, Hooks{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if state := waitState(t, m); state != StateFailed {
		t.Fatalf("state = %s, want failed", state)
	}
	if !errors.Is(m.Err(), ErrInvariant) {
		t.Fatalf("err = %v, want invariant", m.Err())
	}
}

func TestMachineObservesTransitions(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	m := New(func(context.Context, *Token) error { return nil }, Hooks{
		OnTransition: func(_, to State) {
			mu.Lock()
			seen = append(seen, to)
			mu.Unlock()
		},
	})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitState(t, m)
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != StateRunning || seen[1] != StateCompleted {
		t.Fatalf("transitions = %v", seen)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateRunning, true},
		{StateRunning, StatePaused, true},
		{StatePaused, StateRunning, true},
		{StatePaused, StateCancelled, true},
		{StateRunning, StateFailed, true},
		{StateCompleted, StateRunning, false},
		{StateCancelled, StateRunning, false},
		{StateIdle, StatePaused, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !StateCancelled.Terminal() || StatePaused.Terminal() {
		t.Fatal("unexpected Terminal classification")
	}
}
