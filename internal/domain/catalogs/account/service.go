package account

import (
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// StrategyCascadeDeletePayments soft-deactivates every payment method of the account.
const StrategyCascadeDeletePayments domain.Strategy = "cascade-delete-payments"

// PaymentMethodRef is the column on payment methods pointing at an account.
const PaymentMethodRef = "account_id"

// Service provides business logic for Account catalog.
type Service struct {
	*domain.CatalogService[*Account]
}

// NewService creates a new Account service.
func NewService(repo Repository, txm tx.Manager, paymentMethods domain.DependentsRepository) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Account]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "account",
		Deactivation: &domain.DeactivationPolicy{
			Dependents: paymentMethods,
			Ref:        PaymentMethodRef,
			Options: []domain.DependentOption{
				{Strategy: StrategyCascadeDeletePayments, Action: domain.ActionCascadeDeactivate},
			},
		},
	})

	return &Service{CatalogService: base}
}
