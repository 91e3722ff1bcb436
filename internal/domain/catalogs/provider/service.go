package provider

import (
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// Deactivation strategies. Products are the only dependents.
const (
	StrategyClearProducts      domain.Strategy = "clear-products-provider"
	StrategyDeactivateProducts domain.Strategy = "deactivate-products"
)

// ProductRef is the column on products pointing at a provider.
const ProductRef = "provider_id"

// Service provides business logic for Provider catalog.
type Service struct {
	*domain.CatalogService[*Provider]
}

// NewService creates a new Provider service. products is the repository of the dependent table.
func NewService(repo Repository, txm tx.Manager, products domain.DependentsRepository) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Provider]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "provider",
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
