package host

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedSenders bounds the limiter table; once exceeded it is reset.
const maxTrackedSenders = 10_000

type senderLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*rate.Limiter
}

func newSenderLimiter(perSecond float64, burst int) *senderLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &senderLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: make(map[string]*rate.Limiter),
	}
}

// allow reports whether sender may invoke now. A nil limiter allows
// everything.
func (l *senderLimiter) allow(sender string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.visitors[sender]
	if !ok {
		if len(l.visitors) >= maxTrackedSenders {
			l.visitors = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.visitors[sender] = limiter
	}
	return limiter.Allow()
}
