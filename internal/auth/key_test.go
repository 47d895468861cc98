package auth

import (
	"errors"
	"regexp"
	"testing"
)

// tokenPattern matches session tokens (43 chars, base64url safe).
var tokenPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{43}$`)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !tokenPattern.MatchString(token) {
		t.Errorf("GenerateToken() = %q, does not match ^[a-zA-Z0-9_-]{43}$", token)
	}
}

func TestGenerateTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		if seen[token] {
			t.Fatalf("GenerateToken() repeated %q", token)
		}
		seen[token] = true
	}
}

func TestMakeTokenUnique(t *testing.T) {
	calls := 0
	token, err := MakeTokenUnique(func(string) (bool, error) {
		calls++
		return calls == 1, nil
	})
	if err != nil {
		t.Fatalf("MakeTokenUnique() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("exists called %d times, want 2", calls)
	}
	if !tokenPattern.MatchString(token) {
		t.Errorf("MakeTokenUnique() = %q, not a token", token)
	}
}

func TestMakeTokenUnique_ErrorAfterMaxAttempts(t *testing.T) {
	_, err := MakeTokenUnique(func(string) (bool, error) { return true, nil })
	if !errors.Is(err, ErrTokenGenerationFailed) {
		t.Errorf("MakeTokenUnique() error = %v, want ErrTokenGenerationFailed", err)
	}
}

func TestMakeTokenUnique_LookupError(t *testing.T) {
	boom := errors.New("store down")
	_, err := MakeTokenUnique(func(string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("MakeTokenUnique() error = %v, want %v", err, boom)
	}
}
