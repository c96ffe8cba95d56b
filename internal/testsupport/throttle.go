package testsupport

import "mediadupe/internal/throttle"

// NoDelayLimiter returns a limiter with the given handle cap and no sleeps.
func NoDelayLimiter(maxHandles int) *throttle.Limiter {
	return throttle.New(throttle.Policy{MaxHandles: maxHandles, ChunkSize: 4096})
}
