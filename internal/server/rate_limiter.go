// Package server throttles inbound event frames per connection so one
// misbehaving client cannot monopolize the hub's dispatch loop.
package server

import (
	"math"
	"sync"
	"time"
)

// tokenBucket grants one token per inbound event frame. The bucket starts
// full at burst tokens and refills continuously at burst tokens per refill
// interval; a frame arriving to an empty bucket is discarded by the read pump.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	perSecond  float64
	lastRefill time.Time
}

func newTokenBucket(burst int, refill time.Duration) *tokenBucket {
	if burst < 1 {
		burst = 1
	}
	if refill <= 0 {
		refill = time.Second
	}
	return &tokenBucket{
		tokens:     float64(burst),
		burst:      float64(burst),
		perSecond:  float64(burst) / refill.Seconds(),
		lastRefill: time.Now(),
	}
}

// allow refills the bucket for the time elapsed since the previous call,
// then consumes one token. It reports whether the frame may proceed.
func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.burst, b.tokens+elapsed*b.perSecond)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
