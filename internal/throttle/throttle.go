// Package throttle holds the static disk-safety policy consulted by every
// disk-touching operation.
//
// The policy is intentionally fixed rather than adaptive: a cap on concurrently
// open file handles, a delay between file-level operations, a delay between
// chunk reads, and the chunk size for streamed reads. Removable and network
// drives can drop off the bus under sustained I/O pressure, and that failure
// is hard to detect in-band, so the defaults are conservative.
package throttle

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"mediadupe/internal/config"
)

// OpClass identifies the kind of disk operation asking for permission.
type OpClass int

const (
	// OpOpen is a file-level operation: stat or open.
	OpOpen OpClass = iota
	// OpReadChunk is one bounded read within an already open file.
	OpReadChunk
	// OpReadWhole is a streamed whole-file read.
	OpReadWhole
)

func (c OpClass) String() string {
	switch c {
	case OpOpen:
		return "open"
	case OpReadChunk:
		return "read_chunk"
	case OpReadWhole:
		return "read_whole"
	default:
		return "unknown"
	}
}

// Policy is the fixed set of throttle knobs.
type Policy struct {
	MaxHandles int
	OpDelay    time.Duration
	ChunkDelay time.Duration
	ChunkSize  int64
}

// Decision tells a caller whether it may proceed immediately or must first
// wait Delay, and which chunk size to use for streamed reads.
type Decision struct {
	Proceed   bool
	Delay     time.Duration
	ChunkSize int64
}

// DefaultPolicy returns the conservative defaults used for removable media.
func DefaultPolicy() Policy {
	return PolicyFromConfig(nil)
}

// PolicyFromConfig derives a policy from the [throttle] configuration section.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return Policy{
		MaxHandles: cfg.Throttle.MaxHandles,
		OpDelay:    cfg.OpDelay(),
		ChunkDelay: cfg.ChunkDelay(),
		ChunkSize:  cfg.Throttle.ChunkSize,
	}.normalized()
}

func (p Policy) normalized() Policy {
	def := config.Default()
	if p.MaxHandles <= 0 {
		p.MaxHandles = def.Throttle.MaxHandles
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = def.Throttle.ChunkSize
	}
	if p.OpDelay < 0 {
		p.OpDelay = 0
	}
	if p.ChunkDelay < 0 {
		p.ChunkDelay = 0
	}
	return p
}

// Decide returns the decision for an operation class.
func (p Policy) Decide(class OpClass) Decision {
	var delay time.Duration
	switch class {
	case OpOpen, OpReadWhole:
		delay = p.OpDelay
	case OpReadChunk:
		delay = p.ChunkDelay
	}
	return Decision{Proceed: delay <= 0, Delay: delay, ChunkSize: p.ChunkSize}
}

// Limiter enforces a Policy. The handle semaphore is the only shared mutable
// resource between fingerprint workers.
type Limiter struct {
	policy  Policy
	handles *semaphore.Weighted
	open    atomic.Int64
	peak    atomic.Int64
}

// New constructs a limiter for the policy.
func New(policy Policy) *Limiter {
	policy = policy.normalized()
	return &Limiter{
		policy:  policy,
		handles: semaphore.NewWeighted(int64(policy.MaxHandles)),
	}
}

// Policy returns the enforced policy.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// ChunkSize returns the streamed read size.
func (l *Limiter) ChunkSize() int64 {
	return l.policy.ChunkSize
}

// AcquireHandle waits for a free handle slot and then observes the
// inter-operation delay. The returned release func must be called exactly
// once, including on error paths, before the caller returns.
func (l *Limiter) AcquireHandle(ctx context.Context) (func(), error) {
	if err := l.handles.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	current := l.open.Add(1)
	for {
		peak := l.peak.Load()
		if current <= peak || l.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	var released atomic.Bool
	release := func() {
		if released.CompareAndSwap(false, true) {
			l.open.Add(-1)
			l.handles.Release(1)
		}
	}
	if err := l.Wait(ctx, OpOpen); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// Wait sleeps for the delay the policy assigns to class, returning early with
// the context error when ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, class OpClass) error {
	decision := l.policy.Decide(class)
	if decision.Proceed {
		return ctx.Err()
	}
	timer := time.NewTimer(decision.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// OpenHandles reports how many handle slots are currently held.
func (l *Limiter) OpenHandles() int {
	return int(l.open.Load())
}

// PeakHandles reports the highest number of simultaneously held slots.
func (l *Limiter) PeakHandles() int {
	return int(l.peak.Load())
}
