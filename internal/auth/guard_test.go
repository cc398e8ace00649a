package auth

import (
	"testing"
	"time"
)

// fakeClock is a settable monotonic clock for guard and session tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestGuard_LocksAfterThreshold(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(5, time.Minute)
	guard.now = clock.Now

	for i := 0; i < 4; i++ {
		guard.RecordFailure()
		if guard.Locked() {
			t.Fatalf("locked after %d failures, want open below threshold", i+1)
		}
	}

	guard.RecordFailure()
	if !guard.Locked() {
		t.Error("not locked after 5 failures")
	}
}

func TestGuard_UnlocksAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(5, time.Minute)
	guard.now = clock.Now

	for _i := 0; _i < 5; _i++ {
		guard.RecordFailure()
	}
	if !guard.Locked() {
		t.Fatal("expected locked state")
	}

	clock.Advance(59 * time.Second)
	if !guard.Locked() {
		t.Error("unlocked before cooldown elapsed")
	}

	clock.Advance(2 * time.Second)
	if guard.Locked() {
		t.Error("still locked after cooldown elapsed")
	}
	if got := guard.failures(); got != 0 {
		t.Errorf("failures() after unlock = %d, want 0", got)
	}
}

func TestGuard_CooldownMeasuredFromLastFailure(t *testing.T) {
	clock := newFakeClock()
	guard := NewGuard(5, time.Minute)
	guard.now = clock.Now

	for _i := 0; _i < 4; _i++ {
		guard.RecordFailure()
		clock.Advance(10 * time.Second)
	}
	guard.RecordFailure() // fifth failure at t+40s

	clock.Advance(50 * time.Second)
	if !guard.Locked() {
		t.Error("unlocked 50s after the last failure, want 60s")
	}

	clock.Advance(11 * time.Second)
	if guard.Locked() {
		t.Error("still locked 61s after the last failure")
	}
}

func TestGuard_ResetClearsCounter(t *testing.T) {
	guard := NewGuard(5, time.Minute)

	guard.RecordFailure()
	guard.RecordFailure()
	guard.Reset()

	if got := guard.failures(); got != 0 {
		t.Errorf("failures() after reset = %d, want 0", got)
	}
	if guard.Locked() {
		t.Error("locked after reset")
	}
}

func TestGuard_Defaults(t *testing.T) {
	guard := NewGuard(0, 0)
	if guard.threshold != DefaultLockoutThreshold {
		t.Errorf("threshold = %d, want default %d", guard.threshold, DefaultLockoutThreshold)
	}
	if guard.cooldown != DefaultLockoutCooldown {
		t.Errorf("cooldown = %v, want default %v", guard.cooldown, DefaultLockoutCooldown)
	}
}
