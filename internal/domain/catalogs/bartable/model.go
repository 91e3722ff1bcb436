// Package bartable provides the Bartable catalog: the physical tables of the bar,
// keyed by their painted number.
package bartable

import (
	"context"
	"strconv"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
)

// Bartable is a table a sale can be opened on.
type Bartable struct {
	entity.BaseEntity

	// Number is the natural key
	Number int `db:"number" json:"number"`

	// Seats is informational
	Seats int `db:"seats" json:"seats"`
}

// NewBartable creates a new active Bartable.
func NewBartable(number, seats int) *Bartable {
	return &Bartable{
		BaseEntity: entity.NewBaseEntity(),
		Number:     number,
		Seats:      seats,
	}
}

// NaturalKey implements entity.Reference.
func (b *Bartable) NaturalKey() string {
	return strconv.Itoa(b.Number)
}

// Normalize implements entity.Reference. Numbers need no folding.
func (b *Bartable) Normalize() {}

// Validate implements entity.Validatable interface.
func (b *Bartable) Validate(ctx context.Context) error {
	if b.Number <= 0 {
		return apperror.NewValidation("table number must be positive").
			WithDetail("field", "number")
	}
	if b.Seats < 0 {
		return apperror.NewValidation("seats cannot be negative").
			WithDetail("field", "seats")
	}
	return nil
}

// Patch is a partial update of a Bartable.
type Patch struct {
	Number  *int `json:"number,omitempty"`
	Seats   *int `json:"seats,omitempty"`
	Version *int `json:"version,omitempty"`
}

// Apply implements domain.Patch.
func (p Patch) Apply(b *Bartable) {
	if p.Number != nil {
		b.Number = *p.Number
	}
	if p.Seats != nil {
		b.Seats = *p.Seats
	}
}

// ExpectedVersion implements domain.VersionedPatch.
func (p Patch) ExpectedVersion() *int {
	return p.Version
}
