package sale_test

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
	"barpos/internal/domain/catalogs/account"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/catalogs/paymentmethod"
	"barpos/internal/domain/catalogs/product"
	"barpos/internal/domain/documents/sale"
	"barpos/internal/domain/registers/ledger"
	"barpos/internal/infrastructure/storage/memory"
)

type env struct {
	repos    *memory.Repositories
	sales    *sale.Service
	ledger   *ledger.Recorder
	table    *bartable.Bartable
	waiter   *employee.Employee
	beer     *product.Product
	cash     *paymentmethod.PaymentMethod
	cashDesk *account.Account
}

// newEnv seeds one table, one waiter, one product priced 50 and a cash
// payment method. wrap, when set, decorates the sale repository.
func newEnv(t *testing.T, wrap func(*memory.Repositories) sale.Repository) *env {
	t.Helper()
	ctx := context.Background()
	r := memory.NewRepositories()
	var repo sale.Repository = r.Sales
	if wrap != nil {
		repo = wrap(r)
	}

	e := &env{
		repos:    r,
		table:    bartable.NewBartable(5, 4),
		waiter:   employee.NewEmployee("Ana", employee.RoleWaiter),
		beer:     product.NewProduct("BEER-01", "Lager", types.MustMoney("50")),
		cashDesk: account.NewAccount("Cash desk"),
	}
	e.cash = paymentmethod.NewPaymentMethod("Cash", e.cashDesk.ID)
	require.NoError(t, r.Bartables.Create(ctx, e.table))
	require.NoError(t, r.Employees.Create(ctx, e.waiter))
	require.NoError(t, r.Products.Create(ctx, e.beer))
	require.NoError(t, r.Accounts.Create(ctx, e.cashDesk))
	require.NoError(t, r.PaymentMethods.Create(ctx, e.cash))

	e.ledger = ledger.NewRecorder(r.Transactions, r.Accounts, r.Store)
	e.sales = sale.NewService(repo, sale.Lookups{
		Bartables:      r.Bartables,
		Employees:      r.Employees,
		Products:       r.Products,
		PaymentMethods: r.PaymentMethods,
	}, e.ledger, r.Numerator, r.Store)
	return e
}

func (e *env) open(t *testing.T) *sale.Sale {
	t.Helper()
	s, err := e.sales.Create(context.Background(), sale.Owner{BartableID: id.Ptr(e.table.ID)})
	require.NoError(t, err)
	return s
}

func (e *env) transactions(t *testing.T) []*ledger.Transaction {
	t.Helper()
	res, err := e.ledger.List(context.Background(), ledger.Filter{})
	require.NoError(t, err)
	return res.Items
}

func TestCreate_NumbersAndOwner(t *testing.T) {
	e := newEnv(t, nil)

	s := e.open(t)
	assert.True(t, s.Open)
	assert.Regexp(t, `^S-\d{4}-00001$`, s.Number)
	assert.True(t, s.Total.IsZero())
	assert.Equal(t, sale.OwnerBartable, s.OwnerKind())

	staff, err := e.sales.Create(context.Background(), sale.Owner{EmployeeID: id.Ptr(e.waiter.ID)})
	require.NoError(t, err)
	assert.Regexp(t, `^S-\d{4}-00002$`, staff.Number)
	assert.True(t, staff.DiscountRate.Equal(sale.EmployeeDiscountRate))
}

func TestCreate_SecondOpenSaleRejected(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	first := e.open(t)

	_, err := e.sales.Create(ctx, sale.Owner{BartableID: id.Ptr(e.table.ID)})
	assert.Equal(t, apperror.CodeSaleAlreadyOpen, apperror.CodeOf(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, first.ID.String(), appErr.Details[apperror.DetailExistingID])

	res, err := e.sales.List(ctx, sale.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
}

func TestCreate_OwnerMustBeActive(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.repos.Bartables.SoftDeactivate(ctx, e.table.ID))

	_, err := e.sales.Create(ctx, sale.Owner{BartableID: id.Ptr(e.table.ID)})
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.sales.Create(ctx, sale.Owner{})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestMutateLine_EmployeeDiscount(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	wine := product.NewProduct("WINE-01", "House red", types.MustMoney("100"))
	require.NoError(t, e.repos.Products.Create(ctx, wine))

	table := e.open(t)
	table, err := e.sales.MutateLine(ctx, table.ID, sale.OpAdd, wine.ID)
	require.NoError(t, err)
	assert.True(t, table.Lines[0].Subtotal.Equal(types.MustMoney("100")))

	staff, err := e.sales.Create(ctx, sale.Owner{EmployeeID: id.Ptr(e.waiter.ID)})
	require.NoError(t, err)
	staff, err = e.sales.MutateLine(ctx, staff.ID, sale.OpAdd, wine.ID)
	require.NoError(t, err)
	assert.True(t, staff.Lines[0].Subtotal.Equal(types.MustMoney("80")))
	assert.True(t, staff.Total.Equal(types.MustMoney("80")))
}

func TestMutateLine_AddRemoveRoundTrip(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)

	_, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)
	got, err := e.sales.MutateLine(ctx, s.ID, sale.OpRemove, e.beer.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
	assert.True(t, got.Total.IsZero())

	stored, err := e.sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Lines)
	assert.True(t, stored.Total.IsZero())

	_, err = e.sales.MutateLine(ctx, s.ID, sale.OpRemove, e.beer.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.sales.MutateLine(ctx, s.ID, "double", e.beer.ID)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestMutateLine_KeepsFrozenPrice(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)

	_, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)
	require.NoError(t, e.repos.Products.UpdateFields(ctx, e.beer.ID, domain.Fields{"price": types.MustMoney("60")}))

	got, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(types.MustMoney("100")))
}

func TestMutateLine_InactiveProduct(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)
	require.NoError(t, e.repos.Products.SoftDeactivate(ctx, e.beer.ID))

	_, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSaleLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)

	for range 2 {
		_, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
		require.NoError(t, err)
	}
	stored, err := e.sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(types.MustMoney("100")))

	closed, err := e.sales.Close(ctx, s.ID, id.Ptr(e.cash.ID))
	require.NoError(t, err)
	assert.False(t, closed.Open)
	assert.NotNil(t, closed.ClosedAt)
	assert.Equal(t, e.cash.ID, *closed.PaymentMethodID)

	txs := e.transactions(t)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.OriginSale, txs[0].Origin)
	assert.Equal(t, ledger.TypeIncome, txs[0].Type)
	assert.Equal(t, e.cashDesk.ID, txs[0].AccountID)
	assert.Equal(t, s.ID, *txs[0].SaleID)
	assert.True(t, txs[0].Amount.Equal(types.MustMoney("100")))

	_, err = e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	assert.Equal(t, apperror.CodeSaleClosed, apperror.CodeOf(err))

	_, err = e.sales.Close(ctx, s.ID, id.Ptr(e.cash.ID))
	assert.Equal(t, apperror.CodeSaleClosed, apperror.CodeOf(err))
	assert.Len(t, e.transactions(t), 1)

	// the table is free again
	next, err := e.sales.Create(ctx, sale.Owner{BartableID: id.Ptr(e.table.ID)})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, next.ID)
}

func TestClose_Preconditions(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)

	_, err := e.sales.Close(ctx, s.ID, id.Ptr(e.cash.ID))
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err), "empty sale")

	_, err = e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)

	_, err = e.sales.Close(ctx, s.ID, nil)
	assert.Equal(t, apperror.CodeUnpaidClose, apperror.CodeOf(err))

	_, err = e.sales.Close(ctx, s.ID, id.Ptr(id.New()))
	assert.True(t, apperror.IsNotFound(err))

	stored, err := e.sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.Open)
	assert.Empty(t, e.transactions(t))
}

// failingClose lets everything through except the header write that closes the sale.
type failingClose struct {
	*memory.SaleRepo
}

func (f failingClose) UpdateFields(ctx context.Context, saleID id.ID, fields domain.Fields) error {
	if _, ok := fields["closed_at"]; ok {
		return errors.New("connection reset")
	}
	return f.SaleRepo.UpdateFields(ctx, saleID, fields)
}

func TestClose_RollsBackTransaction(t *testing.T) {
	e := newEnv(t, func(r *memory.Repositories) sale.Repository { return failingClose{r.Sales} })
	ctx := context.Background()
	s := e.open(t)
	_, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)

	_, err = e.sales.Close(ctx, s.ID, id.Ptr(e.cash.ID))
	require.Error(t, err)

	stored, err := e.sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.Open)
	assert.Empty(t, e.transactions(t), "income entry rolled back with the sale")
}

func TestDelete_DetachesTransactions(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)
	_, err := e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)
	_, err = e.sales.Close(ctx, s.ID, id.Ptr(e.cash.ID))
	require.NoError(t, err)

	require.NoError(t, e.sales.Delete(ctx, s.ID))

	_, err = e.sales.GetByID(ctx, s.ID)
	assert.True(t, apperror.IsNotFound(err))
	txs := e.transactions(t)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].SaleID)

	assert.True(t, apperror.IsNotFound(e.sales.Delete(ctx, s.ID)))
}

func TestOpenSaleBlocksOwnerDeactivation(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	tables := bartable.NewService(e.repos.Bartables, e.repos.Store, e.repos.Sales)
	s := e.open(t)

	_, err := tables.Deactivate(ctx, e.table.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeInUse, apperror.CodeOf(err))

	_, err = tables.Deactivate(ctx, e.table.ID, "deactivate-products")
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	_, err = e.sales.MutateLine(ctx, s.ID, sale.OpAdd, e.beer.ID)
	require.NoError(t, err)
	_, err = e.sales.Close(ctx, s.ID, id.Ptr(e.cash.ID))
	require.NoError(t, err)

	got, err := tables.Deactivate(ctx, e.table.ID, domain.StrategyNone)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestList_Filters(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	s := e.open(t)
	_, err := e.sales.Create(ctx, sale.Owner{EmployeeID: id.Ptr(e.waiter.ID)})
	require.NoError(t, err)

	open := true
	res, err := e.sales.List(ctx, sale.ListFilter{Open: &open, BartableID: id.Ptr(e.table.ID)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, s.ID, res.Items[0].ID)

	closed := false
	res, err = e.sales.List(ctx, sale.ListFilter{Open: &closed})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
