package ledger

import (
	"context"

	"barpos/internal/core/id"
	"barpos/internal/core/types"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/account"
)

// Repository defines operations for the transaction register.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id id.ID) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, id id.ID) error

	// List returns entries newest first
	List(ctx context.Context, q Query) (domain.ListResult[*Transaction], error)

	// Totals sums amounts per type over q, ignoring pagination
	Totals(ctx context.Context, q Query) (income, expense types.Money, count int, err error)

	// ClearSaleLink nulls sale_id on every entry linked to saleID
	ClearSaleLink(ctx context.Context, saleID id.ID) (int, error)
}

// AccountLookup resolves the account an entry posts to.
type AccountLookup interface {
	FindByID(ctx context.Context, id id.ID) (*account.Account, error)
	FindActiveByID(ctx context.Context, id id.ID) (*account.Account, error)
}
