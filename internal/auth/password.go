// Package auth authenticates members and decides what their trustee role permits.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// argonParams are the Argon2id cost settings stored alongside each hash.
type argonParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// defaultArgon follows the OWASP password storage cheat sheet.
var defaultArgon = argonParams{Time: 3, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

const saltLen = 16

var (
	// ErrEmptyPassword is returned when an empty password is provided.
	ErrEmptyPassword = errors.New("password cannot be empty")

	errMalformedHash = errors.New("malformed password hash")
)

// passwordHash is the decoded form of
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>.
type passwordHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func (h passwordHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func parsePasswordHash(encoded string) (passwordHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return passwordHash{}, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return passwordHash{}, errMalformedHash
	}

	var h passwordHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Threads); err != nil {
		return passwordHash{}, errMalformedHash
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return passwordHash{}, errMalformedHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return passwordHash{}, errMalformedHash
	}
	// G115: a decoded key is a few dozen bytes.
	h.params.KeyLen = uint32(len(h.key)) //nolint:gosec
	return h, nil
}

func derive(password string, salt []byte, p argonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// HashPassword creates an Argon2id hash of the password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	h := passwordHash{params: defaultArgon, salt: salt, key: derive(password, salt, defaultArgon)}
	return h.String(), nil
}

// VerifyPassword reports whether password matches encodedHash. Keys are
// compared in constant time. A malformed hash never matches.
func VerifyPassword(password, encodedHash string) bool {
	if password == "" {
		return false
	}
	h, err := parsePasswordHash(encodedHash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derive(password, h.salt, h.params), h.key) == 1
}

var timingHash = sync.OnceValue(func() string {
	hash, err := HashPassword("timing-equalizer")
	if err != nil {
		panic("failed to generate timing hash: " + err.Error())
	}
	return hash
})

// burnPasswordCheck spends one verification's worth of work so a login for an
// unknown email takes as long as one with a wrong password.
func burnPasswordCheck(password string) {
	VerifyPassword(password, timingHash())
}
