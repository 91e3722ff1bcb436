// Package provider provides the Provider catalog.
// Providers are the suppliers products are bought from.
package provider

import (
	"barpos/internal/core/entity"
)

// Provider is a supplier products may point at.
type Provider struct {
	entity.Catalog

	// Contact is a free-form phone or email
	Contact *string `db:"contact" json:"contact,omitempty"`
}

// NewProvider creates a new active Provider.
func NewProvider(name string) *Provider {
	return &Provider{Catalog: entity.NewCatalog(name)}
}

// Patch is a partial update of a Provider.
type Patch struct {
	entity.CatalogPatch
	Contact *string `json:"contact,omitempty"`
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *Provider) {
	p.ApplyTo(&e.Catalog)
	if p.Contact != nil {
		e.Contact = p.Contact
	}
}
