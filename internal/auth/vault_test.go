package auth

import (
	"errors"
	"testing"

	"github.com/ashdown-labs/sentinel-core/internal/nvram"
)

// testVault returns a vault over a fresh in-memory region.
func testVault(t *testing.T) (*Vault, *nvram.MemRegion) {
	t.Helper()

	region := nvram.NewMemRegion()
	store, _, err := nvram.Open(region)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return NewVault(store), region
}

func TestVault_Signup(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "alice", "Secret1", nil},
		{"username too short", "al", "Secret1", ErrInvalidUsername},
		{"username too long", "abcdefghijklmnopqrstu", "Secret1", ErrInvalidUsername},
		{"weak password", "alice", "secret", ErrWeakPassword},
		{"password too short", "alice", "Ab1", ErrWeakPassword},
		{"username with embedded NUL", "ali\x00ce", "Secret1", ErrInvalidUsername},
		{"password with embedded NUL", "alice", "Sec\x00ret1", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vault, _ := testVault(t)
			err := vault.Signup(tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Signup() error = %v, want %v", err, tt.wantErr)
			}
			if wantEnrolled := tt.wantErr == nil; vault.Enrolled() != wantEnrolled {
				t.Errorf("Enrolled() = %v, want %v", vault.Enrolled(), wantEnrolled)
			}
		})
	}
}

func TestVault_SignupIsOneShot(t *testing.T) {
	vault, _ := testVault(t)

	if err := vault.Signup("alice", "Secret1"); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	// A second signup always fails, regardless of input quality.
	for _, in := range [][2]string{
		{"alice", "Secret1"},
		{"bob", "Other123"},
		{"x", "weak"},
	} {
		if err := vault.Signup(in[0], in[1]); !errors.Is(err, ErrAlreadyEnrolled) {
			t.Errorf("Signup(%q, ...) after enrollment error = %v, want ErrAlreadyEnrolled", in[0], err)
		}
	}
}

func TestVault_SignupStorageFailureRollsBack(t *testing.T) {
	vault, region := testVault(t)
	region.SetCommitError(errors.New("medium refused write"))

	err := vault.Signup("alice", "Secret1")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Signup() error = %v, want ErrStorage", err)
	}
	if vault.Enrolled() {
		t.Error("vault enrolled despite storage failure")
	}

	// Enrollment must succeed once the medium recovers.
	region.SetCommitError(nil)
	if err := vault.Signup("alice", "Secret1"); err != nil {
		t.Errorf("Signup() after recovery error = %v", err)
	}
}

func TestVault_Authenticate(t *testing.T) {
	vault, _ := testVault(t)
	if err := vault.Signup("alice", "Secret1"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"correct pair", "alice", "Secret1", true},
		{"wrong password", "alice", "Secret2", false},
		{"wrong username", "bob", "Secret1", false},
		{"case sensitive username", "Alice", "Secret1", false},
		{"case sensitive password", "alice", "secret1", false},
		{"username below length bound", "al", "Secret1", false},
		{"password below length bound", "alice", "ab", false},
		{"oversized username rejected before comparison", "abcdefghijklmnopqrstu", "Secret1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vault.Authenticate(tt.username, tt.password); got != tt.want {
				t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}

func TestVault_AuthenticateUnenrolled(t *testing.T) {
	vault, _ := testVault(t)
	if vault.Authenticate("alice", "Secret1") {
		t.Error("Authenticate() = true on an unenrolled vault")
	}
}
