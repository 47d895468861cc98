package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// sessionTokenBytes is the number of random bytes in a session token (256 bits).
const sessionTokenBytes = 32

// ErrTokenGenerationFailed indicates no unused token was found after
// maxTokenAttempts tries.
var ErrTokenGenerationFailed = errors.New("failed to generate unique session token after 100 attempts")

const maxTokenAttempts = 100

// GenerateToken creates a cryptographically random session token: 43
// base64url characters without padding.
func GenerateToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MakeTokenUnique generates tokens until exists reports one as unused.
// Repeated collisions at 256 bits mean exists is broken.
func MakeTokenUnique(exists func(string) (bool, error)) (string, error) {
	for range maxTokenAttempts {
		token, err := GenerateToken()
		if err != nil {
			return "", err
		}
		taken, err := exists(token)
		if err != nil {
			return "", err
		}
		if !taken {
			return token, nil
		}
	}
	return "", ErrTokenGenerationFailed
}
