package bartable

import (
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// SaleRef is the column on sales pointing at a table.
const SaleRef = "bartable_id"

// Service provides business logic for Bartable catalog.
type Service struct {
	*domain.CatalogService[*Bartable]
}

// NewService creates a new Bartable service. openSales counts open sales per
// table; an open sale blocks deactivation until it is closed.
func NewService(repo Repository, txm tx.Manager, openSales domain.DependentsCounter) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Bartable]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "bartable",
		Deactivation: &domain.DeactivationPolicy{
			Dependents: domain.BlockingDependents(openSales),
			Ref:        SaleRef,
		},
	})

	return &Service{CatalogService: base}
}
