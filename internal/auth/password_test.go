package auth

import "testing"

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"example from policy", "Abc123", true},
		{"typical", "Secret1", true},
		{"max length", "Abcdefghijklmnopq123", true},
		{"too short", "Ab1", false},
		{"too long", "Abcdefghijklmnopq1234", false},
		{"no uppercase", "abc123", false},
		{"no lowercase", "ABC123", false},
		{"no digit", "Abcdef", false},
		{"empty", "", false},
		{"symbols allowed but still needs classes", "!!!!!!", false},
		{"symbols plus required classes", "Ab1!!!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStrongPassword(tt.password); got != tt.want {
				t.Errorf("IsStrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}
