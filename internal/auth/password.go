package auth

// IsStrongPassword reports whether a password satisfies the enrollment
// policy: length in [6,20] bytes and at least one uppercase letter, one
// lowercase letter, and one digit.
//
// Passwords are stored and compared as plaintext; the persisted record
// format fixes the field at 20 bytes, which rules out a hash string.
func IsStrongPassword(password string) bool {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return false
	}

	var upper, lower, digit bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// isValidUsernameLen reports whether a username is within [3,20] bytes.
func isValidUsernameLen(username string) bool {
	return len(username) >= MinUsernameLen && len(username) <= MaxUsernameLen
}

// isValidLoginLen bounds-checks a login field. Both fields share the same
// [3,20] window at login time, checked before any comparison happens.
func isValidLoginLen(s string) bool {
	return len(s) >= MinUsernameLen && len(s) <= MaxUsernameLen
}
