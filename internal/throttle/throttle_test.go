package throttle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mediadupe/internal/config"
)

func TestPolicyFromConfigDefaults(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxHandles != 2 {
		t.Fatalf("MaxHandles = %d, want 2", p.MaxHandles)
	}
	if p.OpDelay != 20*time.Millisecond || p.ChunkDelay != 2*time.Millisecond {
		t.Fatalf("unexpected delays: %v / %v", p.OpDelay, p.ChunkDelay)
	}
	if p.ChunkSize != 1<<20 {
		t.Fatalf("ChunkSize = %d", p.ChunkSize)
	}
}

func TestPolicyFromConfigOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Throttle.MaxHandles = 0
	cfg.Throttle.OpDelayMS = 0
	cfg.Throttle.ChunkSize = 4096
	p := PolicyFromConfig(&cfg)
	if p.MaxHandles != 2 {
		t.Fatalf("expected zero handle cap to fall back to default, got %d", p.MaxHandles)
	}
	if p.ChunkSize != 4096 {
		t.Fatalf("ChunkSize = %d, want 4096", p.ChunkSize)
	}
	if !p.Decide(OpOpen).Proceed {
		t.Fatal("expected zero op delay to proceed immediately")
	}
}

func TestDecide(t *testing.T) {
	p := Policy{MaxHandles: 1, OpDelay: 30 * time.Millisecond, ChunkDelay: 3 * time.Millisecond, ChunkSize: 512}
	tests := []struct {
		class OpClass
		delay time.Duration
	}{
		{OpOpen, 30 * time.Millisecond},
		{OpReadWhole, 30 * time.Millisecond},
		{OpReadChunk, 3 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			d := p.Decide(tt.class)
			if d.Proceed || d.Delay != tt.delay || d.ChunkSize != 512 {
				t.Fatalf("Decide(%s) = %+v", tt.class, d)
			}
		})
	}
}

func TestAcquireHandleCapsConcurrency(t *testing.T) {
	l := New(Policy{MaxHandles: 2, ChunkSize: 1})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.AcquireHandle(ctx)
			if err != nil {
				t.Errorf("AcquireHandle: %v", err)
				return
			}
			time.Sleep(5 * time.Millisecond)
			release()
			release()
		}()
	}
	wg.Wait()

	if peak := l.PeakHandles(); peak < 1 || peak > 2 {
		t.Fatalf("peak handles = %d, want 1..2", peak)
	}
	if open := l.OpenHandles(); open != 0 {
		t.Fatalf("open handles after release = %d", open)
	}
}

func TestAcquireHandleHonoursCancellation(t *testing.T) {
	l := New(Policy{MaxHandles: 1, ChunkSize: 1})
	release, err := l.AcquireHandle(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.AcquireHandle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitReturnsEarlyOnCancel(t *testing.T) {
	l := New(Policy{MaxHandles: 1, OpDelay: time.Hour, ChunkSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	if err := l.Wait(ctx, OpOpen); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("Wait did not return promptly")
	}
}
