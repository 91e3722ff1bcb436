package category

import (
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// Deactivation strategies. Products are the only dependents.
const (
	StrategyClearProducts      domain.Strategy = "clear-products-category"
	StrategyDeactivateProducts domain.Strategy = "deactivate-products"
)

// ProductRef is the column on products pointing at a category.
const ProductRef = "category_id"

// Service provides business logic for Category catalog.
type Service struct {
	*domain.CatalogService[*Category]
}

// NewService creates a new Category service. products is the repository of the dependent table.
func NewService(repo Repository, txm tx.Manager, products domain.DependentsRepository) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "category",
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
