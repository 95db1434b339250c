// Package services – RateLimiter
//
// This file implements the per-chat cooldown gate: a lightweight, in-memory
// limiter with one golang.org/x/time/rate bucket per conversation and
// opportunistic garbage collection of idle entries. Each bucket refills one
// token per cooldown window with burst 1, which is exactly the "minimum
// interval between processed events" semantics the bot needs.
//
// Notes:
//   - The limiter is process-local; conversation state is too, so there is
//     nothing to coordinate across instances.
//   - Admission consumes the token as a side effect, exactly once, before
//     any further processing. Processing latency therefore never shrinks
//     the next window.
package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds a single conversation's bucket and the last time it was
// seen, so idle entries can be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a fixed cooldown between processed events per chat.
//
// Buckets are created on demand and stored in a map guarded by a mutex.
// Idle buckets are evicted after a TTL via opportunistic cleanup during
// lookups. Safe for concurrent use.
type RateLimiter struct {
	cooldown time.Duration

	mu       sync.Mutex
	visitors map[int64]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter constructs a RateLimiter with the given cooldown window.
// A non-positive cooldown is coerced to 1ms so the limiter still admits.
func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	if cooldown <= 0 {
		cooldown = time.Millisecond
	}
	return &RateLimiter{
		cooldown: cooldown,
		visitors: make(map[int64]*visitor),
		ttl:      10 * time.Minute, // evict idle chats after TTL
	}
}

// getVisitor returns (and refreshes) the bucket for chatID, creating it if
// absent. GC runs before the lookup so an expired bucket for the requested
// chat is also evicted rather than refreshed.
func (rl *RateLimiter) getVisitor(chatID int64, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[chatID]; ok {
		v.lastSeen = now
		lim := v.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rate.Every(rl.cooldown), 1)
	rl.visitors[chatID] = &visitor{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// TryAdmit decides whether an event for chatID may be processed at `now`.
//
// On admission it returns (true, 0) and the token is consumed, so the next
// event inside the cooldown window is rejected. On rejection it returns
// (false, remaining) where remaining is how long the caller would have to
// wait; the reservation is cancelled so a rejected event never pushes the
// window further out.
func (rl *RateLimiter) TryAdmit(chatID int64, now time.Time) (bool, time.Duration) {
	lim := rl.getVisitor(chatID, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, rl.cooldown
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}
