package domain

import "github.com/google/uuid"

// NewID returns a fresh globally unique identifier.
func NewID() string {
	return uuid.NewString()
}

// NewPrefixedID returns "<prefix>-<uuid>". Used where ids read better with a
// kind hint, e.g. "conn-…" or "group-…".
func NewPrefixedID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
