package auth

import (
	"fmt"
	"strings"

	"github.com/ashdown-labs/sentinel-core/internal/nvram"
)

// Vault owns the enrolled credential record. All mutation goes through
// Signup; clearing it requires a region format (factory reset).
type Vault struct {
	store *nvram.Store
}

// NewVault creates a Vault over the persistent store.
func NewVault(store *nvram.Store) *Vault {
	return &Vault{store: store}
}

// Signup enrolls the one device credential. Preconditions are checked in
// order, first failure wins: not already enrolled, username length in
// [3,20], password strength policy. Both fields are persisted into
// zero-padded records, so embedded NUL bytes are rejected: a credential
// containing one would come back truncated after a reload. On success the
// credential is persisted; a persistence failure is surfaced as ErrStorage
// and the enrollment does not take effect.
func (v *Vault) Signup(username, password string) error {
	if v.store.Credentials().Enrolled {
		return ErrAlreadyEnrolled
	}
	if !isValidUsernameLen(username) || strings.IndexByte(username, 0) >= 0 {
		return ErrInvalidUsername
	}
	if !IsStrongPassword(password) || strings.IndexByte(password, 0) >= 0 {
		return ErrWeakPassword
	}

	rec := v.store.Credentials()
	rec.Username = username
	rec.Password = password
	rec.Enrolled = true

	// The store only updates its in-memory record after a successful
	// commit, so a failure here leaves the vault unenrolled.
	if err := v.store.SaveCredentials(rec); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Authenticate reports whether the given pair matches the enrolled
// credential. Input lengths are validated before any comparison; an
// unenrolled vault matches nothing. Comparison is exact and case-sensitive.
func (v *Vault) Authenticate(username, password string) bool {
	if !isValidLoginLen(username) || !isValidLoginLen(password) {
		return false
	}

	rec := v.store.Credentials()
	if !rec.Enrolled {
		return false
	}
	return rec.Username == username && rec.Password == password
}

// Enrolled reports whether a credential has been enrolled.
func (v *Vault) Enrolled() bool {
	return v.store.Credentials().Enrolled
}
