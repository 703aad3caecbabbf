// Package ratelimit is a token-bucket limiter keyed by operation name.
// Mutation endpoints use it so a stuck dashboard view cannot hammer the
// trading backend with close or backtest requests.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter hands out tokens per key. Buckets are created on first use.
type Limiter struct {
	capacity float64
	refill   float64 // tokens per second

	mu sync.Mutex
	m  map[string]*bucket
}

// New creates a limiter where each key holds at most capacity tokens,
// refilled at refillPerSec.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		capacity: capacity,
		refill:   refillPerSec,
		m:        make(map[string]*bucket),
	}
}

// Allow consumes one token for key. False means the caller should back off.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
