// Package guardrails provides admission control for incoming turns.
package guardrails

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the sustained number of turns per second per session.
	DefaultRate = 1.0

	// DefaultBurst is the number of turns a session may take back to back.
	DefaultBurst = 5

	// DefaultIdleTTL is how long an unused session bucket is kept.
	DefaultIdleTTL = 30 * time.Minute
)

// Limiter rate-limits turns with one token bucket per session.
// Limiter is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRate sets the sustained turns per second. A value <= 0 disables limiting.
func WithRate(perSecond float64) Option {
	return func(l *Limiter) {
		if perSecond <= 0 {
			l.limit = rate.Inf
			return
		}
		l.limit = rate.Limit(perSecond)
	}
}

// WithBurst sets the bucket size.
func WithBurst(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.burst = n
		}
	}
}

// WithIdleTTL sets how long an idle session bucket survives a Prune.
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a Limiter with DefaultRate and DefaultBurst unless
// overridden.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		limit:   rate.Limit(DefaultRate),
		burst:   DefaultBurst,
		ttl:     DefaultIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether sessionID may start a turn now and consumes a token
// if so.
func (l *Limiter) Allow(sessionID string) bool {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[sessionID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[sessionID] = b
	}
	b.seen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than the TTL and returns how many
// were removed. A dropped session starts again with a full bucket.
func (l *Limiter) Prune() int {
	cutoff := l.now().Add(-l.ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
