// Package catalog_repo provides PostgreSQL implementations of the reference
// kind repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
	"barpos/internal/domain"
	"barpos/internal/infrastructure/storage/postgres"
)

// Table describes how a reference kind is stored.
type Table struct {
	// Name of the table ("brands")
	Name string

	// Entity is the kind name used in errors ("brand")
	Entity string

	// KeyColumn holds the natural key; unique among active rows
	KeyColumn string

	// LabelColumn is searched and used for the default ordering
	LabelColumn string

	// KeyArg converts a natural key to a query argument.
	// Nil passes the key through as text.
	KeyArg func(key string) (any, error)

	// ForeignKeys are the columns dependents may be counted by
	ForeignKeys []string
}

// BaseCatalogRepo implements domain.CatalogRepository and
// domain.DependentsRepository for one table.
type BaseCatalogRepo[T entity.Reference] struct {
	txm   *postgres.TxManager
	table Table
	cols  []string
	newFn func() T
}

// NewBaseCatalogRepo creates a repository for table. cols are the selected
// columns, usually postgres.Columns of the entity.
func NewBaseCatalogRepo[T entity.Reference](txm *postgres.TxManager, table Table, cols []string, newFn func() T) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txm:   txm,
		table: table,
		cols:  cols,
		newFn: newFn,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *BaseCatalogRepo[T]) selectBuilder() squirrel.SelectBuilder {
	return r.Builder().Select(r.cols...).From(r.table.Name)
}

// row returns the column values of e restricted to the selected columns.
func (r *BaseCatalogRepo[T]) row(e T) map[string]any {
	data := postgres.StructToMap(e)
	out := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}

// Create implements domain.CatalogRepository.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, e T) error {
	sql, args, err := r.Builder().
		Insert(r.table.Name).
		SetMap(r.row(e)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.translate(err, e.NaturalKey())
	}
	return nil
}

// Save implements domain.CatalogRepository with optimistic locking on version.
func (r *BaseCatalogRepo[T]) Save(ctx context.Context, e T) error {
	data := r.row(e)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	sql, args, err := r.Builder().
		Update(r.table.Name).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": e.GetID(), "version": e.GetVersion()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.translate(err, e.NaturalKey())
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, e.GetID()); err != nil {
			return err
		}
		return apperror.NewConcurrentModification(r.table.Entity, e.GetID().String())
	}

	e.SetVersion(e.GetVersion() + 1)
	return nil
}

// FindByID implements domain.CatalogRepository.
func (r *BaseCatalogRepo[T]) FindByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.findOne(ctx, squirrel.Eq{"id": entityID}, entityID)
}

// FindActiveByID implements domain.CatalogRepository.
func (r *BaseCatalogRepo[T]) FindActiveByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.findOne(ctx, squirrel.Eq{"id": entityID, "active": true}, entityID)
}

func (r *BaseCatalogRepo[T]) findOne(ctx context.Context, where squirrel.Sqlizer, entityID id.ID) (T, error) {
	e := r.newFn()
	sql, args, err := r.selectBuilder().Where(where).Limit(1).ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			var zero T
			return zero, apperror.NewNotFound(r.table.Entity, entityID.String())
		}
		return e, fmt.Errorf("get %s: %w", r.table.Entity, err)
	}
	return e, nil
}

// FindByNaturalKey implements domain.CatalogRepository. Rows of every state, oldest first.
func (r *BaseCatalogRepo[T]) FindByNaturalKey(ctx context.Context, key string) ([]T, error) {
	arg, err := r.keyArg(key)
	if err != nil {
		// a key the column cannot hold matches no row
		return nil, nil
	}

	sql, args, err := r.selectBuilder().
		Where(squirrel.Eq{r.table.KeyColumn: arg}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("find %s by key: %w", r.table.Entity, err)
	}
	return out, nil
}

// List implements domain.CatalogRepository.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  make([]T, 0),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.selectBuilder()
	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.Expr(r.table.LabelColumn+"::text ILIKE ?", pattern),
			squirrel.Expr(r.table.KeyColumn+"::text ILIKE ?", pattern),
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id ASC")
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
			return fmt.Errorf("count %s: %w", r.table.Entity, err)
		}
		if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
			return fmt.Errorf("list %s: %w", r.table.Entity, err)
		}
		return nil
	})
	return result, err
}

// UpdateFields implements domain.CatalogRepository. Unknown columns are rejected.
func (r *BaseCatalogRepo[T]) UpdateFields(ctx context.Context, entityID id.ID, fields domain.Fields) error {
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]any, len(fields)+1)
	for col, v := range fields {
		if !slices.Contains(r.cols, col) || col == "id" || col == "version" {
			return fmt.Errorf("update %s: column %q is not writable", r.table.Entity, col)
		}
		set[col] = v
	}
	if _, ok := set["updated_at"]; !ok {
		set["updated_at"] = time.Now().UTC()
	}

	return r.exec(ctx, entityID, r.Builder().
		Update(r.table.Name).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}))
}

// Reactivate implements domain.CatalogRepository.
func (r *BaseCatalogRepo[T]) Reactivate(ctx context.Context, entityID id.ID) error {
	return r.setActive(ctx, entityID, true)
}

// SoftDeactivate implements domain.CatalogRepository.
func (r *BaseCatalogRepo[T]) SoftDeactivate(ctx context.Context, entityID id.ID) error {
	return r.setActive(ctx, entityID, false)
}

func (r *BaseCatalogRepo[T]) setActive(ctx context.Context, entityID id.ID, active bool) error {
	return r.exec(ctx, entityID, r.Builder().
		Update(r.table.Name).
		Set("active", active).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": entityID}))
}

func (r *BaseCatalogRepo[T]) exec(ctx context.Context, entityID id.ID, q squirrel.UpdateBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table.Entity, entityID.String())
	}
	return nil
}

// CountActiveDependents implements domain.DependentsRepository.
func (r *BaseCatalogRepo[T]) CountActiveDependents(ctx context.Context, ref string, parentID id.ID) (int, error) {
	if err := r.checkRef(ref); err != nil {
		return 0, err
	}
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(r.table.Name).
		Where(squirrel.Eq{ref: parentID, "active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s dependents: %w", r.table.Entity, err)
	}
	return n, nil
}

// ClearForeignKeyOnDependents implements domain.DependentsRepository.
func (r *BaseCatalogRepo[T]) ClearForeignKeyOnDependents(ctx context.Context, ref string, parentID id.ID) (int, error) {
	return r.updateDependents(ctx, ref, parentID, map[string]any{ref: nil})
}

// DeactivateDependents implements domain.DependentsRepository.
func (r *BaseCatalogRepo[T]) DeactivateDependents(ctx context.Context, ref string, parentID id.ID) (int, error) {
	return r.updateDependents(ctx, ref, parentID, map[string]any{"active": false})
}

func (r *BaseCatalogRepo[T]) updateDependents(ctx context.Context, ref string, parentID id.ID, set map[string]any) (int, error) {
	if err := r.checkRef(ref); err != nil {
		return 0, err
	}
	sql, args, err := r.Builder().
		Update(r.table.Name).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{ref: parentID, "active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s dependents: %w", r.table.Entity, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *BaseCatalogRepo[T]) checkRef(ref string) error {
	if !slices.Contains(r.table.ForeignKeys, ref) {
		return fmt.Errorf("%s has no reference column %q", r.table.Entity, ref)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) keyArg(key string) (any, error) {
	if r.table.KeyArg == nil {
		return key, nil
	}
	return r.table.KeyArg(key)
}

// translate maps constraint violations, filling the natural key when known.
func (r *BaseCatalogRepo[T]) translate(err error, key string) error {
	mapped := postgres.TranslateError(err)
	if appErr, ok := apperror.AsAppError(mapped); ok {
		if appErr.Code == apperror.CodeDuplicateActive {
			appErr.WithDetail("entity", r.table.Entity)
			if key != "" {
				appErr.WithDetail("key", key)
			}
		}
		return appErr
	}
	return fmt.Errorf("write %s: %w", r.table.Entity, err)
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return r.table.LabelColumn + " ASC", nil
	}

	direction := "ASC"
	field := strings.TrimSpace(orderBy)
	if strings.HasPrefix(field, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(field, "-")
	}
	if field == "name" {
		field = r.table.LabelColumn
	}
	if !slices.Contains(r.cols, field) {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}
	return field + " " + direction, nil
}
