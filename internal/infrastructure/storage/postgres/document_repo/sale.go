// Package document_repo provides the PostgreSQL sale repository.
package document_repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/documents/sale"
	"barpos/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
)

var (
	lineColumns     = []string{"sale_id", "product_id", "quantity", "unit_price", "subtotal"}
	lineCopyColumns = []string{"sale_id", "product_id", "line_no", "quantity", "unit_price", "subtotal"}
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	cols    []string
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:    postgres.Columns[sale.Sale](),
	}
}

func (r *SaleRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create implements sale.Repository. A second open sale for the same owner
// violates ux_sales_open_bartable / ux_sales_open_employee.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	sql, args, err := r.builder.
		Insert(salesTable).
		SetMap(postgres.StructToMap(s)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if mapped := postgres.TranslateError(err); apperror.IsAppError(mapped) {
			return mapped
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// FindByID implements sale.Repository. Lines are not loaded.
func (r *SaleRepo) FindByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, r.selectBuilder().Where(squirrel.Eq{"id": saleID}), saleID)
}

// GetForUpdate implements sale.Repository. The row lock serializes line
// mutations and the close of one sale.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, r.selectBuilder().Where(squirrel.Eq{"id": saleID}).Suffix("FOR UPDATE"), saleID)
}

func (r *SaleRepo) selectBuilder() squirrel.SelectBuilder {
	return r.builder.Select(r.cols...).From(salesTable)
}

func (r *SaleRepo) get(ctx context.Context, q squirrel.SelectBuilder, saleID id.ID) (*sale.Sale, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	doc := new(sale.Sale)
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	doc.Lines = make([]sale.Line, 0)
	return doc, nil
}

// UpdateFields implements sale.Repository.
func (r *SaleRepo) UpdateFields(ctx context.Context, saleID id.ID, fields domain.Fields) error {
	for col := range fields {
		if col == "id" || !slices.Contains(r.cols, col) {
			return fmt.Errorf("update sale: column %q is not writable", col)
		}
	}

	sql, args, err := r.builder.
		Update(salesTable).
		SetMap(fields).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", postgres.TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// Delete implements sale.Repository. Lines go with ON DELETE CASCADE.
func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	tag, err := r.querier(ctx).Exec(ctx, "DELETE FROM "+salesTable+" WHERE id = $1", saleID)
	if err != nil {
		return fmt.Errorf("delete sale: %w", postgres.TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// GetLines implements sale.Repository, in insertion order.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	sql, args, err := r.builder.
		Select(lineColumns...).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]sale.Line, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines implements sale.Repository: existing lines are replaced, in order.
// It must run inside a transaction.
func (r *SaleRepo) SaveLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	q := r.querier(ctx)
	if _, err := q.Exec(ctx, "DELETE FROM "+saleLinesTable+" WHERE sale_id = $1", saleID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, []any{saleID, l.ProductID, i + 1, l.Quantity, l.UnitPrice, l.Subtotal})
	}
	if _, err := r.txm.CopyRows(ctx, saleLinesTable, lineCopyColumns, rows); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// FindOpenByOwner implements sale.Repository.
func (r *SaleRepo) FindOpenByOwner(ctx context.Context, ref string, ownerID id.ID) (*id.ID, error) {
	if err := checkOwnerRef(ref); err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select("id").
		From(salesTable).
		Where(squirrel.Eq{ref: ownerID, "open": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found id.ID
	if err := pgxscan.Get(ctx, r.querier(ctx), &found, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open sale: %w", err)
	}
	return &found, nil
}

// CountActiveDependents implements domain.DependentsCounter: open sales of an owner.
func (r *SaleRepo) CountActiveDependents(ctx context.Context, ref string, ownerID id.ID) (int, error) {
	if err := checkOwnerRef(ref); err != nil {
		return 0, err
	}

	sql, args, err := r.builder.
		Select("COUNT(*)").
		From(salesTable).
		Where(squirrel.Eq{ref: ownerID, "open": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open sales: %w", err)
	}
	return n, nil
}

// List implements sale.Repository. Newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	result := domain.ListResult[*sale.Sale]{
		Items:  make([]*sale.Sale, 0),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := applySaleFilter(r.selectBuilder(), filter)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	q = q.OrderBy("date_time DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
			return fmt.Errorf("count sales: %w", err)
		}
		if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
			return fmt.Errorf("list sales: %w", err)
		}
		return nil
	})
	return result, err
}

func applySaleFilter(q squirrel.SelectBuilder, f sale.ListFilter) squirrel.SelectBuilder {
	if f.Open != nil {
		q = q.Where(squirrel.Eq{"open": *f.Open})
	}
	if f.BartableID != nil {
		q = q.Where(squirrel.Eq{"bartable_id": *f.BartableID})
	}
	if f.EmployeeID != nil {
		q = q.Where(squirrel.Eq{"employee_id": *f.EmployeeID})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date_time": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.Lt{"date_time": *f.DateTo})
	}
	return q
}

func checkOwnerRef(ref string) error {
	if ref != bartable.SaleRef && ref != employee.SaleRef {
		return fmt.Errorf("sales have no owner column %q", ref)
	}
	return nil
}

var _ sale.Repository = (*SaleRepo)(nil)
