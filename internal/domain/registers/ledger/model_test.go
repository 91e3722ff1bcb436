package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
	return &t
}

func TestFilterResolve_HalfOpenRange(t *testing.T) {
	q, err := Filter{Start: day(2026, 3, 1), End: day(2026, 3, 31)}.Resolve()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *q.From)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *q.Until)

	lastInstant := &Transaction{DateTime: time.Date(2026, 3, 31, 23, 59, 59, 999999000, time.UTC)}
	assert.True(t, q.Matches(lastInstant))
	assert.False(t, q.Matches(&Transaction{DateTime: *q.Until}))
	assert.True(t, q.Matches(&Transaction{DateTime: *q.From}))
}

func TestFilterResolve_SingleDay(t *testing.T) {
	q, err := Filter{Start: day(2026, 3, 5), End: day(2026, 3, 5)}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, q.Until.Sub(*q.From))
}

func TestFilterResolve_Errors(t *testing.T) {
	_, err := Filter{Start: day(2026, 3, 6), End: day(2026, 3, 5)}.Resolve()
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	_, err = Filter{Origin: "refund"}.Resolve()
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestQueryMatches_Origin(t *testing.T) {
	sale := &Transaction{Origin: OriginSale}
	movement := &Transaction{Origin: OriginMovement}

	for _, tt := range []struct {
		origin       OriginFilter
		sale, manual bool
	}{
		{"", true, true},
		{OriginAll, true, true},
		{OriginOnlySale, true, false},
		{OriginOnlyMovement, false, true},
	} {
		q, err := Filter{Origin: tt.origin}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, tt.sale, q.Matches(sale), "origin %q", tt.origin)
		assert.Equal(t, tt.manual, q.Matches(movement), "origin %q", tt.origin)
	}
}

func TestEntryValidate(t *testing.T) {
	ctx := context.Background()
	valid := Entry{
		AccountID: id.New(),
		Type:      TypeIncome,
		Origin:    OriginMovement,
		Amount:    types.MustMoney("10"),
	}
	require.NoError(t, valid.Validate(ctx))

	noSale := valid
	noSale.Origin = OriginSale
	assert.Error(t, noSale.Validate(ctx))

	zero := valid
	zero.Amount = types.Zero()
	assert.Error(t, zero.Validate(ctx))

	badType := valid
	badType.Type = "transfer"
	assert.Error(t, badType.Validate(ctx))

	noAccount := valid
	noAccount.AccountID = id.Nil()
	assert.Error(t, noAccount.Validate(ctx))
}
