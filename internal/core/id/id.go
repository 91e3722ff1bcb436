// Package id provides UUIDv7 generation for all entities.
// UUIDv7 is time-ordered, allowing natural sorting by creation time.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (entropy source failure)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// Ptr returns a pointer to a copy of id, or nil for the zero value.
func Ptr(id ID) *ID {
	if IsNil(id) {
		return nil
	}
	return &id
}

// IsNilPtr reports whether an optional reference is unset.
func IsNilPtr(id *ID) bool {
	return id == nil || IsNil(*id)
}

// EqualPtr compares two optional references by value.
func EqualPtr(a, b *ID) bool {
	if IsNilPtr(a) || IsNilPtr(b) {
		return IsNilPtr(a) && IsNilPtr(b)
	}
	return *a == *b
}
