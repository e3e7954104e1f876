package gateway

import (
	"sync"

	"github.com/hupe1980/llmgate/core"
)

// limiter enforces a maximum number of in-flight requests.
type limiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// newLimiter creates a limiter. If max <= 0, any number of requests is allowed.
func newLimiter(max int) *limiter {
	return &limiter{max: max}
}

// acquire reserves a slot or fails with a rate_limited error.
func (l *limiter) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.count >= l.max {
		return core.Errorf(core.KindRateLimited, "exceeded max concurrent requests: %d", l.max)
	}
	l.count++
	return nil
}

func (l *limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count > 0 {
		l.count--
	}
}

// remaining returns how many slots are free, or -1 when unlimited.
func (l *limiter) remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max <= 0 {
		return -1
	}
	return l.max - l.count
}
