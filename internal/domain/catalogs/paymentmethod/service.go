package paymentmethod

import (
	"context"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/tx"
	"barpos/internal/domain"
)

// StrategyReactivateAccount reactivates the owning account before the payment method.
const StrategyReactivateAccount domain.Strategy = "reactivate-account"

// Service provides business logic for PaymentMethod catalog.
type Service struct {
	*domain.CatalogService[*PaymentMethod]
	accounts domain.ActivationPort
}

// NewService creates a new PaymentMethod service. accounts is the activation
// port of the Account kind.
func NewService(repo Repository, txm tx.Manager, accounts domain.ActivationPort) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*PaymentMethod]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "payment method",
		Dependency: &domain.DependencyPolicy[*PaymentMethod]{
			Name:     "account",
			Ref:      func(p *PaymentMethod) *id.ID { return id.Ptr(p.AccountID) },
			Port:     accounts,
			Strategy: StrategyReactivateAccount,
		},
	})

	svc := &Service{
		CatalogService: base,
		accounts:       accounts,
	}
	base.Hooks().OnBeforeWrite(svc.requireActiveAccount)

	return svc
}

// requireActiveAccount binds new or moved payment methods to live accounts only.
func (s *Service) requireActiveAccount(ctx context.Context, p *PaymentMethod) error {
	if !p.IsActive() {
		return nil
	}
	active, err := s.accounts.IsActive(ctx, p.AccountID)
	if err != nil {
		return err
	}
	if !active {
		return apperror.NewValidation("account is inactive").
			WithDetail("field", "accountId").
			WithDetail(apperror.DetailDependencyID, p.AccountID.String())
	}
	return nil
}
