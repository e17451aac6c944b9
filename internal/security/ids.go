package security

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID creates a new UUID for sessions and fixtures
func GenerateID() string {
	return uuid.New().String()
}

// ShortSuffix returns n lowercase hex characters taken from a fresh UUID.
// Used to keep derived names unique, e.g. retry session names.
func ShortSuffix(n int) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	if n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}
