package utils

import "github.com/google/uuid"

// GenerateUUID returns a random (version 4) UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateRunID returns a short identifier for a duplication run, suitable for
// log lines and archive names.
func GenerateRunID() string {
	id := uuid.New()
	return id.String()[:8]
}
