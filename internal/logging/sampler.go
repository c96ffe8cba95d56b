package logging

import (
	"math"
	"strings"
	"sync"
)

// ProgressSampler decides which progress updates are worth a log line. It
// admits the first update of every stage and then one update per bucket of
// completion, so a stage logs at most 100/step+1 lines. It is safe for
// concurrent use.
type ProgressSampler struct {
	step float64

	mu     sync.Mutex
	stage  string
	bucket int
}

// NewProgressSampler returns a sampler with the given bucket width in
// percent. Widths outside (0, 100] fall back to 5.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 || step > 100 {
		step = 5
	}
	return &ProgressSampler{step: step, bucket: -1}
}

// ShouldLog reports whether an update at percent for stage should be logged.
// A negative percent means the total is unknown; only stage changes pass then.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	stage = strings.TrimSpace(stage)

	s.mu.Lock()
	defer s.mu.Unlock()
	admit := false
	if stage != "" && stage != s.stage {
		s.stage = stage
		s.bucket = -1
		admit = true
	}
	if percent < 0 {
		return admit
	}
	b := int(math.Floor(math.Min(percent, 100) / s.step))
	if b > s.bucket {
		s.bucket = b
		admit = true
	}
	return admit
}

// Reset forgets the last stage and bucket.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.stage = ""
	s.bucket = -1
	s.mu.Unlock()
}
