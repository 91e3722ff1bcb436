package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/account"
	"barpos/internal/domain/catalogs/brand"
	"barpos/internal/domain/documents/sale"
	"barpos/internal/domain/registers/ledger"
	"barpos/internal/infrastructure/config"
)

func TestNew_InMemoryWithoutURL(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Sales)
	assert.NotNil(t, a.Ledger)
}

func TestWire_BarNight(t *testing.T) {
	a := Wire(MemoryStorage())
	defer a.Close()
	runBarNight(t, a)
}

// runBarNight drives the wired services through a seeded evening. It is
// shared with the PostgreSQL integration suite.
func runBarNight(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()

	demo, err := a.SeedDemo(ctx)
	require.NoError(t, err)
	require.Len(t, demo.Tables, 6)
	require.Len(t, demo.Products, 5)

	t.Run("seeding twice collides on active keys", func(t *testing.T) {
		_, err := a.SeedDemo(ctx)
		assert.Equal(t, apperror.CodeDuplicateActive, apperror.CodeOf(err))
	})

	table := demo.Tables[0]
	beer, mojito := demo.Products[0], demo.Products[2]

	doc, err := a.Sales.Create(ctx, sale.Owner{BartableID: id.Ptr(table.ID)})
	require.NoError(t, err)

	_, err = a.Sales.Create(ctx, sale.Owner{BartableID: id.Ptr(table.ID)})
	require.Equal(t, apperror.CodeSaleAlreadyOpen, apperror.CodeOf(err))

	for _, p := range []id.ID{beer.ID, beer.ID, mojito.ID} {
		doc, err = a.Sales.MutateLine(ctx, doc.ID, sale.OpAdd, p)
		require.NoError(t, err)
	}
	assert.Equal(t, "15", doc.Total.String())

	_, err = a.Bartables.Deactivate(ctx, table.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeInUse, apperror.CodeOf(err), "open sale blocks the table")

	doc, err = a.Sales.Close(ctx, doc.ID, id.Ptr(demo.Card.ID))
	require.NoError(t, err)
	assert.False(t, doc.Open)

	staff, err := a.Sales.Create(ctx, sale.Owner{EmployeeID: id.Ptr(demo.Employees[0].ID)})
	require.NoError(t, err)
	_, err = a.Sales.MutateLine(ctx, staff.ID, sale.OpAdd, mojito.ID)
	require.NoError(t, err)
	staff, err = a.Sales.Close(ctx, staff.ID, id.Ptr(demo.Cash.ID))
	require.NoError(t, err)
	assert.Equal(t, "6.4", staff.Total.String(), "staff discount")

	summary, err := a.Ledger.Summarize(ctx, ledger.Filter{Origin: ledger.OriginOnlySale})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "21.4", summary.Income.String())

	bank, err := a.Ledger.Summarize(ctx, ledger.Filter{AccountID: id.Ptr(demo.Bank.ID)})
	require.NoError(t, err)
	assert.Equal(t, "15", bank.Net.String())

	t.Run("account cascade reaches payment methods", func(t *testing.T) {
		_, err := a.Accounts.Deactivate(ctx, demo.Bank.ID, domain.StrategyNone)
		require.Equal(t, apperror.CodeInUse, apperror.CodeOf(err))

		_, err = a.Accounts.Deactivate(ctx, demo.Bank.ID, account.StrategyCascadeDeletePayments)
		require.NoError(t, err)

		card, err := a.PaymentMethods.GetByID(ctx, demo.Card.ID)
		require.NoError(t, err)
		assert.False(t, card.Active)
	})

	t.Run("brand clear keeps products", func(t *testing.T) {
		require.NotNil(t, beer.BrandID)
		_, err := a.Brands.Deactivate(ctx, *beer.BrandID, brand.StrategyClearProducts)
		require.NoError(t, err)

		p, err := a.Products.GetByID(ctx, beer.ID)
		require.NoError(t, err)
		assert.True(t, p.Active)
		assert.Nil(t, p.BrandID)
	})

	t.Run("deleting a sale keeps its income", func(t *testing.T) {
		require.NoError(t, a.Sales.Delete(ctx, doc.ID))

		after, err := a.Ledger.Summarize(ctx, ledger.Filter{Origin: ledger.OriginOnlySale})
		require.NoError(t, err)
		assert.Equal(t, summary.Income.String(), after.Income.String())
	})
}
