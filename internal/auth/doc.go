// Package auth implements the device's authentication core: the single
// enrolled credential, brute-force lockout, and the one-slot portal session.
//
// Three cooperating pieces:
//
//   - Vault: owns the persisted credential record. Enrollment happens
//     exactly once; only a factory reset clears it.
//   - Guard: counts consecutive authentication failures and locks the
//     portal out for a cooldown period once a threshold is reached.
//   - Session: a single token slot with sliding expiration. The device
//     has one operator, so a new login replaces any existing session.
//
// Go's HTTP server handles requests on many goroutines, so Guard and
// Session are mutex-guarded. The sensor task's periodic session-validity
// read goes through the same mutex and remains advisory: a stale answer
// only affects a log line.
package auth
