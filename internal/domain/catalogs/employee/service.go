package employee

import (
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// SaleRef is the column on sales pointing at an employee.
const SaleRef = "employee_id"

// Service provides business logic for Employee catalog.
type Service struct {
	*domain.CatalogService[*Employee]
}

// NewService creates a new Employee service.
func NewService(repo Repository, txm tx.Manager, openSales domain.DependentsCounter) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Employee]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "employee",
		Deactivation: &domain.DeactivationPolicy{
			Dependents: domain.BlockingDependents(openSales),
			Ref:        SaleRef,
		},
	})

	return &Service{CatalogService: base}
}
