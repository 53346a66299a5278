package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateSessionToken returns 32 random bytes hex-encoded (64 characters).
func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
