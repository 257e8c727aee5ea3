package security

import (
	"github.com/google/uuid"
)

// GenerateSessionID creates a new UUID for exercise session identification
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSessionID reports whether id looks like a value from GenerateSessionID
func IsSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
