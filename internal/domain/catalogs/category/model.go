// Package category provides the Category catalog.
// Categories group products on the menu ("Beers", "Cocktails").
package category

import (
	"barpos/internal/core/entity"
)

// Category is a name-keyed reference row that products may point at.
type Category struct {
	entity.Catalog
}

// NewCategory creates a new active Category.
func NewCategory(name string) *Category {
	return &Category{Catalog: entity.NewCatalog(name)}
}

// Patch is a partial update of a Category.
type Patch struct {
	entity.CatalogPatch
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *Category) {
	p.ApplyTo(&e.Catalog)
}
