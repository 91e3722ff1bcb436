// Package register_repo provides the PostgreSQL ledger repository.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
	"barpos/internal/domain"
	"barpos/internal/domain/registers/ledger"
	"barpos/internal/infrastructure/storage/postgres"
)

const transactionsTable = "transactions"

// TransactionRepo implements ledger.Repository.
type TransactionRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	cols    []string
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(txm *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:    postgres.Columns[ledger.Transaction](),
	}
}

func (r *TransactionRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create implements ledger.Repository.
func (r *TransactionRepo) Create(ctx context.Context, t *ledger.Transaction) error {
	sql, args, err := r.builder.
		Insert(transactionsTable).
		SetMap(postgres.StructToMap(t)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", postgres.TranslateError(err))
	}
	return nil
}

// FindByID implements ledger.Repository.
func (r *TransactionRepo) FindByID(ctx context.Context, transactionID id.ID) (*ledger.Transaction, error) {
	sql, args, err := r.builder.
		Select(r.cols...).
		From(transactionsTable).
		Where(squirrel.Eq{"id": transactionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	t := new(ledger.Transaction)
	if err := pgxscan.Get(ctx, r.querier(ctx), t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", transactionID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update implements ledger.Repository. Origin and sale link are immutable.
func (r *TransactionRepo) Update(ctx context.Context, t *ledger.Transaction) error {
	sql, args, err := r.builder.
		Update(transactionsTable).
		SetMap(map[string]any{
			"account_id":  t.AccountID,
			"type":        t.Type,
			"amount":      t.Amount,
			"description": t.Description,
			"date_time":   t.DateTime,
			"updated_at":  t.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.exec(ctx, t.ID, sql, args)
}

// Delete implements ledger.Repository.
func (r *TransactionRepo) Delete(ctx context.Context, transactionID id.ID) error {
	return r.exec(ctx, transactionID, "DELETE FROM "+transactionsTable+" WHERE id = $1", []any{transactionID})
}

func (r *TransactionRepo) exec(ctx context.Context, transactionID id.ID, sql string, args []any) error {
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("write transaction: %w", postgres.TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", transactionID.String())
	}
	return nil
}

// List implements ledger.Repository. Newest first.
func (r *TransactionRepo) List(ctx context.Context, q ledger.Query) (domain.ListResult[*ledger.Transaction], error) {
	result := domain.ListResult[*ledger.Transaction]{
		Items:  make([]*ledger.Transaction, 0),
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	sel := applyQuery(r.builder.Select(r.cols...).From(transactionsTable), q)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(sel, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	sel = sel.OrderBy("date_time DESC", "id DESC")
	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		sel = sel.Offset(uint64(q.Offset))
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	return result, err
}

// Totals implements ledger.Repository in one aggregate query.
func (r *TransactionRepo) Totals(ctx context.Context, q ledger.Query) (income, expense types.Money, count int, err error) {
	sql, args, err := totalsQuery(r.builder, q).ToSql()
	if err != nil {
		return income, expense, 0, fmt.Errorf("build totals query: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&income, &expense, &count); err != nil {
		return income, expense, 0, fmt.Errorf("totals: %w", err)
	}
	return income, expense, count, nil
}

func totalsQuery(b squirrel.StatementBuilderType, q ledger.Query) squirrel.SelectBuilder {
	return applyQuery(b.Select(
		fmt.Sprintf("COALESCE(SUM(amount) FILTER (WHERE type = '%s'), 0)", ledger.TypeIncome),
		fmt.Sprintf("COALESCE(SUM(amount) FILTER (WHERE type = '%s'), 0)", ledger.TypeExpense),
		"COUNT(*)",
	).From(transactionsTable), q)
}

// ClearSaleLink implements ledger.Repository.
func (r *TransactionRepo) ClearSaleLink(ctx context.Context, saleID id.ID) (int, error) {
	tag, err := r.querier(ctx).Exec(ctx,
		"UPDATE "+transactionsTable+" SET sale_id = NULL, updated_at = NOW() WHERE sale_id = $1", saleID)
	if err != nil {
		return 0, fmt.Errorf("clear sale link: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func applyQuery(sel squirrel.SelectBuilder, q ledger.Query) squirrel.SelectBuilder {
	if q.From != nil {
		sel = sel.Where(squirrel.GtOrEq{"date_time": *q.From})
	}
	if q.Until != nil {
		sel = sel.Where(squirrel.Lt{"date_time": *q.Until})
	}
	if q.Origin != nil {
		sel = sel.Where(squirrel.Eq{"origin": *q.Origin})
	}
	if q.AccountID != nil {
		sel = sel.Where(squirrel.Eq{"account_id": *q.AccountID})
	}
	return sel
}

var _ ledger.Repository = (*TransactionRepo)(nil)
