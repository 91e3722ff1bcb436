package product

import (
	"context"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/tx"
	"barpos/internal/core/types"
	"barpos/internal/domain"
)

// Refs are the activation ports of the kinds a product may point at.
type Refs struct {
	Brands     domain.ActivationPort
	Categories domain.ActivationPort
	Providers  domain.ActivationPort
}

// Service provides business logic for Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	refs Refs
}

// NewService creates a new Product service.
func NewService(repo Repository, txm tx.Manager, refs Refs) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		refs:           refs,
	}
	base.Hooks().OnBeforeWrite(svc.requireActiveRefs)
	base.Hooks().OnBeforeReactivate(svc.requireActiveRefs)

	return svc
}

// SetPrice changes the list price. Open sales keep the subtotals already computed.
func (s *Service) SetPrice(ctx context.Context, productID id.ID, price types.Money) (*Product, error) {
	if price.IsNegative() {
		return nil, apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	return s.UpdateFields(ctx, productID, domain.Fields{"price": price})
}

func (s *Service) requireActiveRefs(ctx context.Context, p *Product) error {
	checks := []struct {
		field string
		ref   *id.ID
		port  domain.ActivationPort
	}{
		{"brandId", p.BrandID, s.refs.Brands},
		{"categoryId", p.CategoryID, s.refs.Categories},
		{"providerId", p.ProviderID, s.refs.Providers},
	}

	for _, c := range checks {
		if id.IsNilPtr(c.ref) || c.port == nil {
			continue
		}
		active, err := c.port.IsActive(ctx, *c.ref)
		if err != nil {
			return err
		}
		if !active {
			return apperror.NewValidation("referenced row is inactive").
				WithDetail("field", c.field).
				WithDetail(apperror.DetailDependencyID, c.ref.String())
		}
	}
	return nil
}
