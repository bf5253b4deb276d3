package ledger

import (
	"crypto/rand"
)

const (
	CodeLength = 12
	// 64 symbols, so every random byte maps to one symbol without bias
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// NewCode returns a random URL-safe invitation code, 72 bits of entropy.
func NewCode() (string, error) {
	b := make([]byte, CodeLength)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = alphabet[b[i]&63]
	}

	return string(b), nil
}

// IsCode tells if s looks like a code NewCode would produce.
func IsCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}

	for _, c := range []byte(s) {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}

	return true
}
