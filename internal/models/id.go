package models

import "github.com/google/uuid"

// NewID returns a UUIDv7, so ids and the keys built from them sort by creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
