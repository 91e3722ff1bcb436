package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyRows bulk-loads rows into table with the COPY protocol.
// It needs a transaction in ctx.
func (m *TxManager) CopyRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := m.txFrom(ctx)
	if t == nil {
		return 0, fmt.Errorf("copy into %s requires a transaction", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, TranslateError(err))
	}
	return n, nil
}
