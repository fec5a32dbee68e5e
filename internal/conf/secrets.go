package conf

import (
	"crypto/rand"
	"encoding/base64"
	"log"
)

// GenerateRandomSecret generates a URL-safe base64 encoded random string
// suitable for use as a token signing secret. The output is 43 characters
// long, providing 256 bits of entropy.
func GenerateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("Failed to generate random secret: %v", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}

// EnsureJWTSecret fills in a generated signing secret when the configuration
// leaves it empty. Returns true when a new secret was generated.
func (s *Settings) EnsureJWTSecret() bool {
	if s.Security.JWTSecret != "" {
		return false
	}
	s.Security.JWTSecret = GenerateRandomSecret()
	return true
}
