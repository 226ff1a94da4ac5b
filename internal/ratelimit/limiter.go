// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a per-key token bucket rate limiter. Each key gets its own
// bucket with the configured rate and burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
	nowFunc func() time.Time // injectable clock for testing
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed now, consuming a
// token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	now := l.nowFunc()
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
// Read-only tools get generous limits; tools that advance or reset the
// session are throttled so a runaway client cannot spin the simulation.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"snowball_state":       NewLimiter(2.0, 20),      // 120/minute, burst 20
		"snowball_detail":      NewLimiter(2.0, 20),      // 120/minute, burst 20
		"snowball_add_seed":    NewLimiter(1.0, 10),      // 60/minute, burst 10
		"snowball_remove_seed": NewLimiter(1.0, 10),      // 60/minute, burst 10
		"snowball_start":       NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"snowball_round":       NewLimiter(1.0, 10),      // 60/minute, burst 10
		"snowball_run":         NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"snowball_reset":       NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"snowball_export":      NewLimiter(10.0/60.0, 5), // 10/minute, burst 5
		"snowball_graph":       NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"snowball_simulate":    NewLimiter(5.0/60.0, 2),  // 5/minute, burst 2
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
