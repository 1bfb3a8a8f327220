package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Token lengths in bytes before hex encoding.
const (
	SessionIDBytes = 20
	CSRFTokenBytes = 32
)

var (
	sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{40}$`)
	csrfTokenPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// NewSessionID returns a random, hex-encoded session identifier.
func NewSessionID() (string, error) {
	return randomHex(SessionIDBytes)
}

// NewCSRFToken returns a random, hex-encoded CSRF token.
func NewCSRFToken() (string, error) {
	return randomHex(CSRFTokenBytes)
}

// ValidSessionID checks that a cookie value looks like a session ID
// before it is used as a Redis key.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// ValidCSRFToken checks the shape of a CSRF token.
func ValidCSRFToken(token string) bool {
	return csrfTokenPattern.MatchString(token)
}

// QuickHash returns a truncated SHA256 of the input for log correlation.
// This is NOT for password storage.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
