package brand

import (
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// Deactivation strategies. Products are the only dependents.
const (
	StrategyClearProducts      domain.Strategy = "clear-products-brand"
	StrategyDeactivateProducts domain.Strategy = "deactivate-products"
)

// ProductRef is the column on products pointing at a brand.
const ProductRef = "brand_id"

// Service provides business logic for Brand catalog.
type Service struct {
	*domain.CatalogService[*Brand]
}

// NewService creates a new Brand service. products is the repository of the dependent table.
func NewService(repo Repository, txm tx.Manager, products domain.DependentsRepository) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Brand]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "brand",
		Deactivation: &domain.DeactivationPolicy{
			Dependents: products,
			Ref:        ProductRef,
			Options: []domain.DependentOption{
				{Strategy: StrategyClearProducts, Action: domain.ActionClearForeignKey},
				{Strategy: StrategyDeactivateProducts, Action: domain.ActionCascadeDeactivate},
			},
		},
	})

	return &Service{CatalogService: base}
}
