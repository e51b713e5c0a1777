package identity_test

import (
	"testing"

	"github.com/taskforge/taskforge/pkg/identity"
)

func TestValidatePassword_TooShort(t *testing.T) {
	violations := identity.ValidatePassword("ab")
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	// The message says 6 while the check enforces 3. Inherited behavior,
	// preserved on purpose.
	if violations[0] != "The password needs to be 6 characters at least" {
		t.Fatalf("unexpected message: %q", violations[0])
	}
}

func TestValidatePassword_ThreeCharsAccepted(t *testing.T) {
	if violations := identity.ValidatePassword("abc"); len(violations) != 0 {
		t.Fatalf("expected 3-char password to pass, got %v", violations)
	}
}

func TestValidatePassword_Absent(t *testing.T) {
	if violations := identity.ValidatePassword(nil); len(violations) != 1 {
		t.Fatalf("expected 1 violation for absent password, got %v", violations)
	}
}

func TestValidatePassword_NonString(t *testing.T) {
	violations := identity.ValidatePassword(float64(26598677))
	if len(violations) != 1 || violations[0] != "Invalid password value" {
		t.Fatalf("unexpected violations: %v", violations)
	}
}
