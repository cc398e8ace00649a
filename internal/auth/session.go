package auth

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Session token parameters.
const (
	// TokenLength is the fixed length of a session token.
	TokenLength = 16

	// tokenAlphabet is the 62-symbol alphanumeric token alphabet.
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultSessionTimeout is the sliding-expiration window.
	DefaultSessionTimeout = 5 * time.Minute
)

// Session is the device's single session slot.
//
// Login consults the brute-force guard, then the vault; success issues a
// fresh 16-character token. Validate refreshes the sliding expiration
// window; an expired session is invalidated as a side effect. Tokens are
// never persisted, so a restart logs the operator out.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Session struct {
	vault   *Vault
	guard   *Guard
	timeout time.Duration

	mu           sync.Mutex
	rng          *rand.Rand
	token        string
	lastActivity time.Time
	valid        bool

	// now is the monotonic clock source, replaceable in tests.
	now func() time.Time
}

// NewSession creates the session slot. The token generator is seeded once,
// here, from a crypto/rand entropy sample mixed with the elapsed-time
// reading; non-positive timeout falls back to the default.
func NewSession(vault *Vault, guard *Guard, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Session{
		vault:   vault,
		guard:   guard,
		timeout: timeout,
		rng:     rand.New(rand.NewSource(tokenSeed())),
		now:     time.Now,
	}
}

// tokenSeed derives the one-time PRNG seed.
func tokenSeed() int64 {
	var b [8]byte
	// crypto/rand.Read never fails on supported platforms; the time mix
	// covers the theoretical zero-read.
	_, _ = crand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:])) ^ time.Now().UnixNano()
}

// Login authenticates and, on success, replaces the session slot with a
// fresh token. While locked out it fails fast without consulting the vault,
// and the rejected attempt extends the lockout window, so hammering the
// portal keeps it locked.
func (s *Session) Login(username, password string) (string, error) {
	if s.guard.Locked() {
		// A rejected attempt during lockout still counts, pushing the
		// cooldown window out from now.
		s.guard.RecordFailure()
		return "", ErrLockedOut
	}

	if !s.vault.Authenticate(username, password) {
		s.guard.RecordFailure()
		return "", ErrInvalidCredentials
	}

	s.guard.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = s.generateToken()
	s.lastActivity = s.now()
	s.valid = true
	return s.token, nil
}

// Validate checks a presented token against the session slot. A match
// within the timeout window refreshes the window (sliding expiration) and
// returns true. A match outside the window invalidates the session and
// returns false.
func (s *Session) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid || token != s.token {
		return false
	}
	if s.now().Sub(s.lastActivity) > s.timeout {
		s.valid = false
		return false
	}
	s.lastActivity = s.now()
	return true
}

// Invalidate unconditionally ends the session. Idempotent.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
	s.token = ""
}

// Valid reports whether the slot currently holds an unexpired session.
// This is the advisory read used by the sensor task for diagnostics; it
// does not refresh the window.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return false
	}
	return s.now().Sub(s.lastActivity) <= s.timeout
}

// Timeout returns the sliding-expiration window, used for cookie expiry.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// generateToken draws TokenLength symbols uniformly from the alphanumeric
// alphabet. Callers must hold s.mu (rand.Rand is not goroutine-safe).
func (s *Session) generateToken() string {
	b := make([]byte, TokenLength)
	for i := range b {
		b[i] = tokenAlphabet[s.rng.Intn(len(tokenAlphabet))]
	}
	return string(b)
}
