package auth

import "errors"

// Input bounds for both username and password, in bytes. These match the
// fixed field widths of the persisted credential record.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 20
	MinPasswordLen = 6
	MaxPasswordLen = 20
)

// Sentinel errors for authentication operations.
var (
	// ErrAlreadyEnrolled is returned by Signup after a credential exists.
	ErrAlreadyEnrolled = errors.New("a credential is already enrolled")

	// ErrInvalidUsername is returned when the username is outside [3,20] bytes.
	ErrInvalidUsername = errors.New("username must be 3-20 characters")

	// ErrWeakPassword is returned when the password fails the strength policy.
	ErrWeakPassword = errors.New("password must be 6-20 characters with upper, lower and digit")

	// ErrInvalidCredentials is returned on any login mismatch. It never
	// reveals whether the username, the password, or enrollment state was
	// at fault.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLockedOut is returned while the brute-force guard is locked.
	ErrLockedOut = errors.New("too many failed attempts, try again later")

	// ErrStorage wraps persistence failures during enrollment.
	ErrStorage = errors.New("storing credential failed")
)
