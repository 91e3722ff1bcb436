// Package brand provides the Brand catalog.
// Brands label products ("Heineken", "House").
package brand

import (
	"barpos/internal/core/entity"
)

// Brand is a name-keyed reference row that products may point at.
type Brand struct {
	entity.Catalog
}

// NewBrand creates a new active Brand.
func NewBrand(name string) *Brand {
	return &Brand{Catalog: entity.NewCatalog(name)}
}

// Patch is a partial update of a Brand.
type Patch struct {
	entity.CatalogPatch
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *Brand) {
	p.ApplyTo(&e.Catalog)
}
