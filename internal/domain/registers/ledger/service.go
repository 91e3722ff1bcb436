package ledger

import (
	"context"
	"fmt"
	"time"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/tx"
	"barpos/internal/core/types"
	"barpos/internal/domain"
	"barpos/pkg/logger"
)

// Recorder is the append-only financial ledger. Sale closes and manual
// movements both go through CreateEntry.
type Recorder struct {
	repo      Repository
	accounts  AccountLookup
	txManager tx.Manager
	now       func() time.Time
}

// NewRecorder creates a new ledger recorder.
func NewRecorder(repo Repository, accounts AccountLookup, txManager tx.Manager) *Recorder {
	return &Recorder{
		repo:      repo,
		accounts:  accounts,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateEntry validates and appends one entry. The account must exist; it may be inactive.
func (r *Recorder) CreateEntry(ctx context.Context, entry Entry) (*Transaction, error) {
	if err := entry.Validate(ctx); err != nil {
		return nil, err
	}

	now := r.now()
	t := &Transaction{
		ID:          id.New(),
		AccountID:   entry.AccountID,
		Type:        entry.Type,
		Origin:      entry.Origin,
		Amount:      entry.Amount,
		SaleID:      entry.SaleID,
		Description: entry.Description,
		DateTime:    entry.DateTime.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if entry.DateTime.IsZero() {
		t.DateTime = now
	}

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.accounts.FindByID(ctx, entry.AccountID); err != nil {
			return notFoundAs(err, "account", entry.AccountID)
		}
		if err := r.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "transaction recorded",
		"id", t.ID,
		"origin", string(t.Origin),
		"type", string(t.Type),
		"amount", t.Amount.String())
	return t, nil
}

// RecordMovement appends a manual entry to an active account.
func (r *Recorder) RecordMovement(ctx context.Context, accountID id.ID, typ Type, amount types.Money, description string) (*Transaction, error) {
	var out *Transaction
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.accounts.FindActiveByID(ctx, accountID); err != nil {
			return notFoundAs(err, "account", accountID)
		}
		t, err := r.CreateEntry(ctx, Entry{
			AccountID:   accountID,
			Type:        typ,
			Origin:      OriginMovement,
			Amount:      amount,
			Description: description,
		})
		out = t
		return err
	})
	return out, err
}

// GetByID retrieves one entry.
func (r *Recorder) GetByID(ctx context.Context, transactionID id.ID) (*Transaction, error) {
	t, err := r.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, notFoundAs(err, "transaction", transactionID)
	}
	return t, nil
}

// Update edits a manual movement. Entries produced by a sale are refused.
func (r *Recorder) Update(ctx context.Context, transactionID id.ID, patch Patch) (*Transaction, error) {
	var out *Transaction
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := r.repo.FindByID(ctx, transactionID)
		if err != nil {
			return notFoundAs(err, "transaction", transactionID)
		}
		if t.Origin == OriginSale {
			return apperror.NewForbiddenOrigin(transactionID.String(), string(t.Origin))
		}

		prevAccount := t.AccountID
		patch.Apply(t)
		entry := Entry{AccountID: t.AccountID, Type: t.Type, Origin: t.Origin, Amount: t.Amount}
		if err := entry.Validate(ctx); err != nil {
			return err
		}
		if t.AccountID != prevAccount {
			if _, err := r.accounts.FindActiveByID(ctx, t.AccountID); err != nil {
				return notFoundAs(err, "account", t.AccountID)
			}
		}

		t.UpdatedAt = r.now()
		if err := r.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		out = t
		return nil
	})
	return out, err
}

// Delete removes a manual movement. Entries produced by a sale are refused.
func (r *Recorder) Delete(ctx context.Context, transactionID id.ID) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := r.repo.FindByID(ctx, transactionID)
		if err != nil {
			return notFoundAs(err, "transaction", transactionID)
		}
		if t.Origin == OriginSale {
			return apperror.NewForbiddenOrigin(transactionID.String(), string(t.Origin))
		}
		if err := r.repo.Delete(ctx, transactionID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		logger.Info(ctx, "transaction deleted", "id", transactionID)
		return nil
	})
}

// DetachSale clears the sale link of every entry produced by saleID.
// Used by the administrative hard delete of a sale.
func (r *Recorder) DetachSale(ctx context.Context, saleID id.ID) (int, error) {
	n, err := r.repo.ClearSaleLink(ctx, saleID)
	if err != nil {
		return 0, fmt.Errorf("detach sale: %w", err)
	}
	return n, nil
}

// List returns entries matching filter, newest first.
func (r *Recorder) List(ctx context.Context, filter Filter) (domain.ListResult[*Transaction], error) {
	q, err := filter.Resolve()
	if err != nil {
		return domain.ListResult[*Transaction]{}, err
	}
	if q.Limit <= 0 {
		q.Limit = domain.DefaultListFilter().Limit
	}
	return r.repo.List(ctx, q)
}

// Summarize totals income and expense over filter. Pagination is ignored.
func (r *Recorder) Summarize(ctx context.Context, filter Filter) (Summary, error) {
	q, err := filter.Resolve()
	if err != nil {
		return Summary{}, err
	}
	income, expense, count, err := r.repo.Totals(ctx, q)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return Summary{
		Income:  income,
		Expense: expense,
		Net:     income.Sub(expense),
		Count:   count,
	}, nil
}

func notFoundAs(err error, entity string, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entity, entityID.String())
	}
	return err
}
