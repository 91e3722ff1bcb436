package entity

import (
	"context"

	"barpos/internal/core/apperror"
	"barpos/internal/core/naming"
)

// Catalog is the base type for reference data keyed by name.
// Examples: Brand, Category, Account, Employee.
type Catalog struct {
	BaseEntity

	// Name is the display form of the natural key
	Name string `db:"name" json:"name"`

	// NormalizedName is the folded key compared for uniqueness among active rows
	NormalizedName string `db:"normalized_name" json:"normalizedName"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(name string) Catalog {
	c := Catalog{BaseEntity: NewBaseEntity()}
	c.SetName(name)
	return c
}

// SetName stores the display name and its normalized key.
func (c *Catalog) SetName(name string) {
	c.Name = naming.Clean(name)
	c.NormalizedName = naming.Normalize(name)
}

// Normalize implements Reference.
func (c *Catalog) Normalize() {
	c.SetName(c.Name)
}

// NaturalKey implements Reference.
func (c *Catalog) NaturalKey() string {
	return c.NormalizedName
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.NormalizedName == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// CatalogPatch is the partial update shared by name-keyed kinds.
// Nil fields are left untouched.
type CatalogPatch struct {
	Name *string `json:"name,omitempty"`

	// Version, when set, must match the stored version
	Version *int `json:"version,omitempty"`
}

// ApplyTo copies the set fields onto c.
func (p CatalogPatch) ApplyTo(c *Catalog) {
	if p.Name != nil {
		c.Name = *p.Name
	}
}

// ExpectedVersion returns the version the caller last read, if any.
func (p CatalogPatch) ExpectedVersion() *int {
	return p.Version
}
