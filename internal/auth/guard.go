package auth

import (
	"sync"
	"time"
)

// Guard default policy values.
const (
	// DefaultLockoutThreshold is the number of consecutive failures that
	// triggers a lockout.
	DefaultLockoutThreshold = 5

	// DefaultLockoutCooldown is how long a lockout lasts, measured from the
	// most recent failure.
	DefaultLockoutCooldown = 60 * time.Second
)

// Guard is the brute-force lockout state machine. Two states: open and
// locked. It locks after a threshold of consecutive failures and reopens
// automatically once the cooldown has elapsed since the last failure, at
// which point the counter resets to zero.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Guard struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	failed      int
	lastFailure time.Time
	locked      bool

	// now is the monotonic clock source, replaceable in tests.
	now func() time.Time
}

// NewGuard creates a Guard with the given policy. Non-positive arguments
// fall back to the defaults.
func NewGuard(threshold int, cooldown time.Duration) *Guard {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultLockoutCooldown
	}
	return &Guard{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Locked reports whether authentication attempts should be rejected
// immediately. A lockout whose cooldown has elapsed is cleared as a side
// effect, resetting the failure counter.
func (g *Guard) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.locked {
		return false
	}
	if g.now().Sub(g.lastFailure) >= g.cooldown {
		g.locked = false
		g.failed = 0
		return false
	}
	return true
}

// RecordFailure counts one failed attempt (wrong credentials, out-of-range
// input, or an attempt made while locked) and stamps the failure time.
// Reaching the threshold transitions the guard to locked.
func (g *Guard) RecordFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failed++
	g.lastFailure = g.now()
	if g.failed >= g.threshold {
		g.locked = true
	}
}

// Reset clears the failure counter after a successful authentication.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = 0
	g.locked = false
}

// failures returns the current consecutive-failure count.
func (g *Guard) failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed
}
