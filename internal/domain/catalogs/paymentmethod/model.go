// Package paymentmethod provides the PaymentMethod catalog.
// A payment method ("Cash", "Visa") settles a sale into its owning account.
package paymentmethod

import (
	"context"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
)

// PaymentMethod is a name-keyed reference row owned by an Account.
type PaymentMethod struct {
	entity.Catalog

	// AccountID is the account closed sales post to
	AccountID id.ID `db:"account_id" json:"accountId"`
}

// NewPaymentMethod creates a new active PaymentMethod.
func NewPaymentMethod(name string, accountID id.ID) *PaymentMethod {
	return &PaymentMethod{
		Catalog:   entity.NewCatalog(name),
		AccountID: accountID,
	}
}

// Validate implements entity.Validatable interface.
func (p *PaymentMethod) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.AccountID) {
		return apperror.NewValidation("account is required").
			WithDetail("field", "accountId")
	}
	return nil
}

// Patch is a partial update of a PaymentMethod.
type Patch struct {
	entity.CatalogPatch
	AccountID *id.ID `json:"accountId,omitempty"`
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *PaymentMethod) {
	p.ApplyTo(&e.Catalog)
	if p.AccountID != nil {
		e.AccountID = *p.AccountID
	}
}
