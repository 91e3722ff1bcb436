package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"barpos/internal/core/apperror"
)

// SQLSTATE codes mapped to application errors.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Constraint names from migrations. Unique indexes over active rows are
// named ux_<table>_active_key; the open-sale indexes ux_sales_open_<owner>.
const (
	activeKeyPrefix = "ux_"
	activeKeySuffix = "_active_key"
	openSalePrefix  = "ux_sales_open_"
)

// TranslateError converts constraint violations into application errors.
// Anything else is returned unchanged.
func TranslateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		name := pgErr.ConstraintName
		switch {
		case strings.HasPrefix(name, openSalePrefix):
			owner := strings.TrimPrefix(name, openSalePrefix)
			return apperror.NewSaleAlreadyOpen(owner, "", nil).WithCause(err)
		case strings.HasPrefix(name, activeKeyPrefix) && strings.HasSuffix(name, activeKeySuffix):
			table := strings.TrimSuffix(strings.TrimPrefix(name, activeKeyPrefix), activeKeySuffix)
			return apperror.NewDuplicateActive(table, "", nil).WithCause(err)
		}
	case pgForeignKeyViolation:
		return apperror.NewValidation("referenced row does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgSerializationFailure, pgDeadlockDetected:
		return apperror.NewConcurrentModification(pgErr.TableName, "").WithCause(err)
	}
	return err
}
