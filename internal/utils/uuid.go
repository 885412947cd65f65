package utils

import "github.com/google/uuid"

// GenerateUUID returns a new random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// IsValidUUID reports whether the string parses as a UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
