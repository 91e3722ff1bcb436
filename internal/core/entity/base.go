package entity

import (
	"context"
	"time"

	"barpos/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Reference is the contract shared by every reference entity kind
// (accounts, brands, tables...). The lifecycle protocol is written against it.
type Reference interface {
	Validatable

	GetID() id.ID
	// NaturalKey returns the normalized natural key used for duplicate detection.
	NaturalKey() string
	// Normalize recomputes derived key columns from their display form.
	Normalize()
	IsActive() bool
	SetActive(active bool)
	GetVersion() int
	SetVersion(v int)
}

// BaseEntity contains common fields for all entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Active is false for soft-deleted rows
	Active bool `db:"active" json:"active"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new active BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Active:    true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID returns the entity ID.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// IsActive reports whether the row is live.
func (b *BaseEntity) IsActive() bool {
	return b.Active
}

// SetActive sets or clears the active flag.
func (b *BaseEntity) SetActive(active bool) {
	b.Active = active
}

// GetVersion returns the optimistic lock version.
func (b *BaseEntity) GetVersion() int {
	return b.Version
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}
