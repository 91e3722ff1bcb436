// Package product provides the Product catalog: what the bar sells.
// Products are keyed by code and may point at a brand, a category and a provider.
package product

import (
	"context"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
	"barpos/internal/core/naming"
	"barpos/internal/core/types"
)

// Product is a sellable item.
type Product struct {
	entity.BaseEntity

	// Code is the display form of the natural key ("BEER-01")
	Code string `db:"code" json:"code"`

	// NormalizedCode is compared for uniqueness among active rows
	NormalizedCode string `db:"normalized_code" json:"normalizedCode"`

	Name string `db:"name" json:"name"`

	// Price is the list price before any owner discount
	Price types.Money `db:"price" json:"price"`

	BrandID    *id.ID `db:"brand_id" json:"brandId,omitempty"`
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`
	ProviderID *id.ID `db:"provider_id" json:"providerId,omitempty"`
}

// NewProduct creates a new active Product.
func NewProduct(code, name string, price types.Money) *Product {
	p := &Product{
		BaseEntity: entity.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Price:      price,
	}
	p.Normalize()
	return p
}

// NaturalKey implements entity.Reference.
func (p *Product) NaturalKey() string {
	return p.NormalizedCode
}

// Normalize implements entity.Reference.
func (p *Product) Normalize() {
	p.Code = naming.Clean(p.Code)
	p.NormalizedCode = naming.Normalize(p.Code)
	p.Name = naming.Clean(p.Name)
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if p.NormalizedCode == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	return nil
}

// Patch is a partial update of a Product. A reference set to the nil id is cleared.
type Patch struct {
	Code       *string      `json:"code,omitempty"`
	Name       *string      `json:"name,omitempty"`
	Price      *types.Money `json:"price,omitempty"`
	BrandID    *id.ID       `json:"brandId,omitempty"`
	CategoryID *id.ID       `json:"categoryId,omitempty"`
	ProviderID *id.ID       `json:"providerId,omitempty"`
	Version    *int         `json:"version,omitempty"`
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *Product) {
	if p.Code != nil {
		e.Code = *p.Code
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.BrandID != nil {
		e.BrandID = id.Ptr(*p.BrandID)
	}
	if p.CategoryID != nil {
		e.CategoryID = id.Ptr(*p.CategoryID)
	}
	if p.ProviderID != nil {
		e.ProviderID = id.Ptr(*p.ProviderID)
	}
}

// ExpectedVersion implements domain.VersionedPatch.
func (p Patch) ExpectedVersion() *int {
	return p.Version
}
