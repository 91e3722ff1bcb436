package memory

import (
	"context"
	"fmt"
	"slices"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
	"barpos/internal/domain"
	"barpos/internal/domain/registers/ledger"
)

// TransactionRepo is the in-memory implementation of ledger.Repository.
type TransactionRepo struct {
	store *Store
	rows  *table[id.ID, *ledger.Transaction]
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(s *Store) *TransactionRepo {
	return &TransactionRepo{
		store: s,
		rows:  newTable[id.ID, *ledger.Transaction](s, clonePtr[ledger.Transaction]),
	}
}

// Create implements ledger.Repository.
func (r *TransactionRepo) Create(ctx context.Context, t *ledger.Transaction) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.rows.rows[t.ID]; ok {
			return fmt.Errorf("insert transaction: duplicate id %s", t.ID)
		}
		r.rows.put(t.ID, t)
		return nil
	})
}

// FindByID implements ledger.Repository.
func (r *TransactionRepo) FindByID(ctx context.Context, transactionID id.ID) (*ledger.Transaction, error) {
	var out *ledger.Transaction
	err := r.store.do(ctx, func() error {
		t, ok := r.rows.get(transactionID)
		if !ok {
			return apperror.NewNotFound("transaction", transactionID.String())
		}
		out = t
		return nil
	})
	return out, err
}

// Update implements ledger.Repository.
func (r *TransactionRepo) Update(ctx context.Context, t *ledger.Transaction) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.rows.rows[t.ID]; !ok {
			return apperror.NewNotFound("transaction", t.ID.String())
		}
		r.rows.put(t.ID, t)
		return nil
	})
}

// Delete implements ledger.Repository.
func (r *TransactionRepo) Delete(ctx context.Context, transactionID id.ID) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.rows.rows[transactionID]; !ok {
			return apperror.NewNotFound("transaction", transactionID.String())
		}
		r.rows.delete(transactionID)
		return nil
	})
}

// List implements ledger.Repository.
func (r *TransactionRepo) List(ctx context.Context, q ledger.Query) (domain.ListResult[*ledger.Transaction], error) {
	res := domain.ListResult[*ledger.Transaction]{Items: make([]*ledger.Transaction, 0), Limit: q.Limit, Offset: q.Offset}
	err := r.store.do(ctx, func() error {
		matched := r.match(q)
		slices.SortFunc(matched, func(a, b *ledger.Transaction) int {
			if c := b.DateTime.Compare(a.DateTime); c != 0 {
				return c
			}
			return compareIDs(b.ID, a.ID)
		})
		res.TotalCount = int64(len(matched))
		res.Items = paginate(matched, q.Limit, q.Offset)
		return nil
	})
	return res, err
}

// Totals implements ledger.Repository.
func (r *TransactionRepo) Totals(ctx context.Context, q ledger.Query) (income, expense types.Money, count int, err error) {
	income, expense = types.Zero(), types.Zero()
	err = r.store.do(ctx, func() error {
		for _, t := range r.match(q) {
			switch t.Type {
			case ledger.TypeIncome:
				income = income.Add(t.Amount)
			case ledger.TypeExpense:
				expense = expense.Add(t.Amount)
			}
			count++
		}
		return nil
	})
	return income, expense, count, err
}

// ClearSaleLink implements ledger.Repository.
func (r *TransactionRepo) ClearSaleLink(ctx context.Context, saleID id.ID) (int, error) {
	n := 0
	err := r.store.do(ctx, func() error {
		for txID, t := range r.rows.rows {
			if t.SaleID == nil || *t.SaleID != saleID {
				continue
			}
			c := r.rows.clone(t)
			c.SaleID = nil
			r.rows.put(txID, c)
			n++
		}
		return nil
	})
	return n, err
}

func (r *TransactionRepo) match(q ledger.Query) []*ledger.Transaction {
	var out []*ledger.Transaction
	for _, t := range r.rows.rows {
		if q.Matches(t) {
			out = append(out, r.rows.clone(t))
		}
	}
	return out
}

var _ ledger.Repository = (*TransactionRepo)(nil)
