package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/brand"
	"barpos/internal/domain/catalogs/product"
)

func TestRunInTransaction_RollsBackEveryTable(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	failure := errors.New("boom")

	b := brand.NewBrand("Acme")
	err := repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Brands.Create(ctx, b))
		p := product.NewProduct("B-1", "Beer", types.MustMoney("5"))
		p.BrandID = id.Ptr(b.ID)
		require.NoError(t, repos.Products.Create(ctx, p))
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = repos.Brands.FindByID(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err))
	list, err := repos.Products.List(ctx, domain.ListFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	b := brand.NewBrand("Acme")
	err := repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		inner := repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
			return repos.Brands.Create(ctx, b)
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)

	_, err = repos.Brands.FindByID(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err), "inner write rolled back with the outer transaction")
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	b := brand.NewBrand("Acme")
	err := repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		_ = repos.Brands.Create(ctx, b)
		panic("unexpected")
	})
	require.Error(t, err)

	_, err = repos.Brands.FindByID(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRunInTransaction_CanceledContext(t *testing.T) {
	repos := NewRepositories()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := repos.Store.RunInTransaction(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestNumerator_RollbackReusesNumber(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	cfg := numeratorConfig()

	_ = repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := repos.Numerator.GetNextNumber(ctx, cfg, nil, period)
		require.NoError(t, err)
		return errors.New("abort")
	})

	num, err := repos.Numerator.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "S-2026-00001", num)
}
