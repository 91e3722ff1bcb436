package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/account"
	"barpos/internal/domain/catalogs/brand"
	"barpos/internal/domain/catalogs/category"
	"barpos/internal/domain/catalogs/paymentmethod"
	"barpos/internal/domain/catalogs/product"
	"barpos/internal/domain/catalogs/provider"
	"barpos/internal/infrastructure/storage/memory"
	"barpos/pkg/logger"
)

type fixture struct {
	repos          *memory.Repositories
	brands         *brand.Service
	products       *product.Service
	accounts       *account.Service
	paymentMethods *paymentmethod.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := memory.NewRepositories()
	f := &fixture{repos: r}
	f.brands = brand.NewService(r.Brands, r.Store, r.Products)
	categories := category.NewService(r.Categories, r.Store, r.Products)
	providers := provider.NewService(r.Providers, r.Store, r.Products)
	f.products = product.NewService(r.Products, r.Store, product.Refs{
		Brands:     f.brands.Activation(),
		Categories: categories.Activation(),
		Providers:  providers.Activation(),
	})
	f.accounts = account.NewService(r.Accounts, r.Store, r.PaymentMethods)
	f.paymentMethods = paymentmethod.NewService(r.PaymentMethods, r.Store, f.accounts.Activation())
	return f
}

func (f *fixture) brand(t *testing.T, name string) *brand.Brand {
	t.Helper()
	b, err := f.brands.Create(context.Background(), brand.NewBrand(name))
	require.NoError(t, err)
	return b
}

func (f *fixture) product(t *testing.T, code string, brandID id.ID) *product.Product {
	t.Helper()
	p := product.NewProduct(code, "Product "+code, types.NewMoneyFromInt(10))
	p.BrandID = id.Ptr(brandID)
	p, err := f.products.Create(context.Background(), p)
	require.NoError(t, err)
	return p
}

func entityPatch(name *string, version *int) entity.CatalogPatch {
	return entity.CatalogPatch{Name: name, Version: version}
}

func detail(t *testing.T, err error, key string) any {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Details[key]
}

func TestCreate_DuplicateActive(t *testing.T) {
	f := newFixture(t)
	existing := f.brand(t, "Heineken")

	_, err := f.brands.Create(context.Background(), brand.NewBrand("  heineken "))
	assert.Equal(t, apperror.CodeDuplicateActive, apperror.CodeOf(err))
	assert.Equal(t, existing.ID.String(), detail(t, err, apperror.DetailExistingID))
}

func TestCreate_DuplicateInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.brand(t, "Heineken")
	_, err := f.brands.Deactivate(ctx, old.ID, domain.StrategyNone)
	require.NoError(t, err)

	_, err = f.brands.Create(ctx, brand.NewBrand("HEINEKEN"))
	assert.Equal(t, apperror.CodeDuplicateInactive, apperror.CodeOf(err))
	assert.Equal(t, old.ID.String(), detail(t, err, apperror.DetailExistingID))

	res, err := f.brands.List(ctx, domain.ListFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount, "no row created")
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.brands.Create(context.Background(), brand.NewBrand("   "))
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestUpdate_DuplicateAndVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.brand(t, "Heineken")
	b := f.brand(t, "Corona")

	name := "heineken"
	_, err := f.brands.Update(ctx, b.ID, brand.Patch{CatalogPatch: entityPatch(&name, nil)})
	assert.Equal(t, apperror.CodeDuplicateActive, apperror.CodeOf(err))

	stale := 7
	renamed := "Corona Extra"
	_, err = f.brands.Update(ctx, b.ID, brand.Patch{CatalogPatch: entityPatch(&renamed, &stale)})
	assert.True(t, apperror.IsConcurrentModification(err))

	current := b.Version
	got, err := f.brands.Update(ctx, b.ID, brand.Patch{CatalogPatch: entityPatch(&renamed, &current)})
	require.NoError(t, err)
	assert.Equal(t, "Corona Extra", got.Name)
	assert.Equal(t, "corona extra", got.NaturalKey())
}

func TestUpdate_SelfKeepsKey(t *testing.T) {
	f := newFixture(t)
	b := f.brand(t, "Heineken")

	name := "HEINEKEN"
	got, err := f.brands.Update(context.Background(), b.ID, brand.Patch{CatalogPatch: entityPatch(&name, nil)})
	require.NoError(t, err)
	assert.Equal(t, "HEINEKEN", got.Name)
}

func TestDeactivate_NoDependents(t *testing.T) {
	f := newFixture(t)
	b := f.brand(t, "Heineken")

	got, err := f.brands.Deactivate(context.Background(), b.ID, domain.StrategyNone)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, b.Name, got.Name)

	_, err = f.brands.GetActiveByID(context.Background(), b.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeactivate_InUseLeavesRowsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brand(t, "Heineken")
	p1 := f.product(t, "H-1", b.ID)
	p2 := f.product(t, "H-2", b.ID)

	_, err := f.brands.Deactivate(ctx, b.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeInUse, apperror.CodeOf(err))
	assert.Equal(t, 2, detail(t, err, apperror.DetailCount))
	assert.Equal(t,
		[]string{string(brand.StrategyClearProducts), string(brand.StrategyDeactivateProducts), "cancel"},
		detail(t, err, apperror.DetailAllowedStrategies))

	got, err := f.brands.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	for _, p := range []*product.Product{p1, p2} {
		stored, err := f.products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, stored.Active)
		assert.Equal(t, b.ID, *stored.BrandID)
	}
}

func TestDeactivate_Cancel(t *testing.T) {
	f := newFixture(t)
	b := f.brand(t, "Heineken")
	f.product(t, "H-1", b.ID)

	got, err := f.brands.Deactivate(context.Background(), b.ID, domain.StrategyCancel)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestDeactivate_ClearProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brand(t, "Heineken")
	p := f.product(t, "H-1", b.ID)

	got, err := f.brands.Deactivate(ctx, b.ID, brand.StrategyClearProducts)
	require.NoError(t, err)
	assert.False(t, got.Active)

	stored, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Nil(t, stored.BrandID)
}

func TestDeactivate_CascadeProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brand(t, "Heineken")
	p := f.product(t, "H-1", b.ID)

	_, err := f.brands.Deactivate(ctx, b.ID, brand.StrategyDeactivateProducts)
	require.NoError(t, err)

	stored, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, b.ID, *stored.BrandID)
}

func TestDeactivate_UnknownStrategy(t *testing.T) {
	f := newFixture(t)
	b := f.brand(t, "Heineken")
	f.product(t, "H-1", b.ID)

	_, err := f.brands.Deactivate(context.Background(), b.ID, "cascade-delete-payments")
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	assert.NotEmpty(t, detail(t, err, apperror.DetailAllowedStrategies))
}

func TestDeactivate_AccountCascadesPaymentMethods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc, err := f.accounts.Create(ctx, account.NewAccount("Till"))
	require.NoError(t, err)
	pm, err := f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash", acc.ID))
	require.NoError(t, err)

	_, err = f.accounts.Deactivate(ctx, acc.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeInUse, apperror.CodeOf(err))
	assert.Equal(t, 1, detail(t, err, apperror.DetailCount))

	_, err = f.accounts.Deactivate(ctx, acc.ID, account.StrategyCascadeDeletePayments)
	require.NoError(t, err)

	stored, err := f.paymentMethods.GetByID(ctx, pm.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestReactivate_AlreadyActive(t *testing.T) {
	f := newFixture(t)
	b := f.brand(t, "Heineken")

	_, err := f.brands.Reactivate(context.Background(), b.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeAlreadyActive, apperror.CodeOf(err))
}

func TestReactivate_KeyTakenByActiveRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.brand(t, "Heineken")
	_, err := f.brands.Deactivate(ctx, old.ID, domain.StrategyNone)
	require.NoError(t, err)

	current := brand.NewBrand("Heineken")
	require.NoError(t, f.repos.Brands.Create(ctx, current))

	_, err = f.brands.Reactivate(ctx, old.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeDuplicateActive, apperror.CodeOf(err))
	assert.Equal(t, current.ID.String(), detail(t, err, apperror.DetailExistingID))
}

func TestReactivate_DependencyInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc, err := f.accounts.Create(ctx, account.NewAccount("Till"))
	require.NoError(t, err)
	pm, err := f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash", acc.ID))
	require.NoError(t, err)
	_, err = f.accounts.Deactivate(ctx, acc.ID, account.StrategyCascadeDeletePayments)
	require.NoError(t, err)

	_, err = f.paymentMethods.Reactivate(ctx, pm.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeDependencyInactive, apperror.CodeOf(err))
	assert.Equal(t, acc.ID.String(), detail(t, err, apperror.DetailDependencyID))
	assert.Equal(t,
		[]string{string(paymentmethod.StrategyReactivateAccount), "cancel"},
		detail(t, err, apperror.DetailAllowedStrategies))

	got, err := f.paymentMethods.Reactivate(ctx, pm.ID, domain.StrategyCancel)
	require.NoError(t, err)
	assert.False(t, got.Active)

	got, err = f.paymentMethods.Reactivate(ctx, pm.ID, paymentmethod.StrategyReactivateAccount)
	require.NoError(t, err)
	assert.True(t, got.Active)

	storedAcc, err := f.accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, storedAcc.Active)
}

func TestCreate_PaymentMethodNeedsActiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc, err := f.accounts.Create(ctx, account.NewAccount("Till"))
	require.NoError(t, err)
	_, err = f.accounts.Deactivate(ctx, acc.ID, domain.StrategyNone)
	require.NoError(t, err)

	_, err = f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash", acc.ID))
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	assert.Equal(t, acc.ID.String(), detail(t, err, apperror.DetailDependencyID))

	_, err = f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Card", id.New()))
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_ProductNeedsActiveRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brand(t, "Heineken")
	_, err := f.brands.Deactivate(ctx, b.ID, domain.StrategyNone)
	require.NoError(t, err)

	p := product.NewProduct("H-1", "Lager", types.NewMoneyFromInt(5))
	p.BrandID = id.Ptr(b.ID)
	_, err = f.products.Create(ctx, p)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestSetPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "H-1", f.brand(t, "Heineken").ID)

	got, err := f.products.SetPrice(ctx, p.ID, types.MustMoney("12.50"))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(types.MustMoney("12.5")))

	_, err = f.products.SetPrice(ctx, p.ID, types.MustMoney("-1"))
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

// existingID extracts the row a DUPLICATE_* conflict points at.
func existingID(t *testing.T, err error) id.ID {
	t.Helper()
	raw, ok := detail(t, err, apperror.DetailExistingID).(string)
	require.True(t, ok)
	parsed, perr := id.Parse(raw)
	require.NoError(t, perr)
	return parsed
}

func TestReactivateSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.brand(t, "Heineken")
	_, err := f.brands.Deactivate(ctx, old.ID, domain.StrategyNone)
	require.NoError(t, err)
	current := f.brand(t, "Heineken Lager")

	renamed := "heineken"
	_, err = f.brands.Update(ctx, current.ID, brand.Patch{CatalogPatch: entityPatch(&renamed, nil)})
	require.Equal(t, apperror.CodeDuplicateInactive, apperror.CodeOf(err))
	require.Equal(t, old.ID, existingID(t, err))

	got, err := f.brands.ReactivateSwap(ctx, existingID(t, err), current.ID, domain.StrategyNone)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, old.ID, got.ID)
	assert.Equal(t, "heineken", got.NaturalKey())

	swapped, err := f.brands.GetByID(ctx, current.ID)
	require.NoError(t, err)
	assert.False(t, swapped.Active)

	_, err = f.brands.Create(ctx, brand.NewBrand("HEINEKEN"))
	assert.Equal(t, apperror.CodeDuplicateActive, apperror.CodeOf(err), "key held by the reactivated row")
}

func TestReactivateSwap_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.brand(t, "Heineken")
	b := f.brand(t, "Corona")
	_, err := f.brands.Deactivate(ctx, a.ID, domain.StrategyNone)
	require.NoError(t, err)

	_, err = f.brands.ReactivateSwap(ctx, a.ID, a.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	_, err = f.brands.ReactivateSwap(ctx, b.ID, a.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeAlreadyActive, apperror.CodeOf(err))

	_, err = f.brands.ReactivateSwap(ctx, a.ID, id.New(), domain.StrategyNone)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	_, err = f.brands.ReactivateSwap(ctx, a.ID, b.ID, paymentmethod.StrategyReactivateAccount)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	assert.Equal(t,
		[]string{string(brand.StrategyClearProducts), string(brand.StrategyDeactivateProducts), "cancel"},
		detail(t, err, apperror.DetailAllowedStrategies))

	stored, err := f.brands.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active, "rejected swaps leave both rows alone")
}

func TestReactivateSwap_RetiredRowDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old, err := f.accounts.Create(ctx, account.NewAccount("Cash desk"))
	require.NoError(t, err)
	_, err = f.accounts.Deactivate(ctx, old.ID, domain.StrategyNone)
	require.NoError(t, err)
	till, err := f.accounts.Create(ctx, account.NewAccount("Till"))
	require.NoError(t, err)
	pm, err := f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash", till.ID))
	require.NoError(t, err)

	renamed := "cash desk"
	_, err = f.accounts.Update(ctx, till.ID, account.Patch{CatalogPatch: entityPatch(&renamed, nil)})
	require.Equal(t, apperror.CodeDuplicateInactive, apperror.CodeOf(err))

	_, err = f.accounts.ReactivateSwap(ctx, old.ID, till.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeInUse, apperror.CodeOf(err))
	assert.Equal(t, 1, detail(t, err, apperror.DetailCount))
	assert.Equal(t,
		[]string{string(account.StrategyCascadeDeletePayments), "cancel"},
		detail(t, err, apperror.DetailAllowedStrategies))

	got, err := f.accounts.ReactivateSwap(ctx, old.ID, till.ID, domain.StrategyCancel)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assertActive := func(wantOld, wantTill, wantPM bool) {
		t.Helper()
		o, err := f.accounts.GetByID(ctx, old.ID)
		require.NoError(t, err)
		tl, err := f.accounts.GetByID(ctx, till.ID)
		require.NoError(t, err)
		p, err := f.paymentMethods.GetByID(ctx, pm.ID)
		require.NoError(t, err)
		assert.Equal(t, []bool{wantOld, wantTill, wantPM}, []bool{o.Active, tl.Active, p.Active})
	}
	assertActive(false, true, true)

	got, err = f.accounts.ReactivateSwap(ctx, old.ID, till.ID, account.StrategyCascadeDeletePayments)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assertActive(true, false, false)
}

func TestReactivateSwap_DependencyInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closed, err := f.accounts.Create(ctx, account.NewAccount("Old till"))
	require.NoError(t, err)
	old, err := f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash", closed.ID))
	require.NoError(t, err)
	_, err = f.accounts.Deactivate(ctx, closed.ID, account.StrategyCascadeDeletePayments)
	require.NoError(t, err)

	open, err := f.accounts.Create(ctx, account.NewAccount("Till"))
	require.NoError(t, err)
	current, err := f.paymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash register", open.ID))
	require.NoError(t, err)

	renamed := "Cash"
	_, err = f.paymentMethods.Update(ctx, current.ID, paymentmethod.Patch{CatalogPatch: entityPatch(&renamed, nil)})
	require.Equal(t, apperror.CodeDuplicateInactive, apperror.CodeOf(err))
	require.Equal(t, old.ID, existingID(t, err))

	rowsActive := func() []bool {
		t.Helper()
		o, err := f.paymentMethods.GetByID(ctx, old.ID)
		require.NoError(t, err)
		c, err := f.paymentMethods.GetByID(ctx, current.ID)
		require.NoError(t, err)
		acc, err := f.accounts.GetByID(ctx, closed.ID)
		require.NoError(t, err)
		return []bool{o.Active, c.Active, acc.Active}
	}

	_, err = f.paymentMethods.ReactivateSwap(ctx, old.ID, current.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeDependencyInactive, apperror.CodeOf(err))
	assert.Equal(t, closed.ID.String(), detail(t, err, apperror.DetailDependencyID))
	assert.Equal(t,
		[]string{string(paymentmethod.StrategyReactivateAccount), "cancel"},
		detail(t, err, apperror.DetailAllowedStrategies))
	assert.Equal(t, []bool{false, true, false}, rowsActive())

	got, err := f.paymentMethods.ReactivateSwap(ctx, old.ID, current.ID, domain.StrategyCancel)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, []bool{false, true, false}, rowsActive())

	got, err = f.paymentMethods.ReactivateSwap(ctx, old.ID, current.ID, paymentmethod.StrategyReactivateAccount)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, []bool{true, false, true}, rowsActive())
}

func TestReactivate_ProductNeedsActiveRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brand(t, "Heineken")
	p := f.product(t, "H-1", b.ID)
	_, err := f.brands.Deactivate(ctx, b.ID, brand.StrategyDeactivateProducts)
	require.NoError(t, err)

	_, err = f.products.Reactivate(ctx, p.ID, domain.StrategyNone)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	assert.Equal(t, b.ID.String(), detail(t, err, apperror.DetailDependencyID))

	stored, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	_, err = f.brands.Reactivate(ctx, b.ID, domain.StrategyNone)
	require.NoError(t, err)
	got, err := f.products.Reactivate(ctx, p.ID, domain.StrategyNone)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

// failingReactivate breaks the second half of a swap.
type failingReactivate struct {
	*memory.CatalogRepo[*brand.Brand]
}

func (failingReactivate) Reactivate(context.Context, id.ID) error {
	return errors.New("disk full")
}

func TestReactivateSwap_IsAtomic(t *testing.T) {
	r := memory.NewRepositories()
	ctx := context.Background()
	svc := brand.NewService(failingReactivate{r.Brands}, r.Store, r.Products)

	old := brand.NewBrand("Heineken")
	old.Active = false
	require.NoError(t, r.Brands.Create(ctx, old))
	current := brand.NewBrand("Heineken")
	require.NoError(t, r.Brands.Create(ctx, current))

	_, err := svc.ReactivateSwap(ctx, old.ID, current.ID, domain.StrategyNone)
	require.Error(t, err)

	stillActive, err := r.Brands.FindByID(ctx, current.ID)
	require.NoError(t, err)
	assert.True(t, stillActive.Active, "deactivation rolled back with the failed reactivation")
	stillInactive, err := r.Brands.FindByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, stillInactive.Active)
}

func TestDeactivate_TagsOperation(t *testing.T) {
	f := newFixture(t)
	b, err := f.brands.Create(context.Background(), brand.NewBrand("Tagged"))
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), logger.NewFromZap(zap.New(core)))

	_, err = f.brands.Deactivate(ctx, b.ID, domain.StrategyNone)
	require.NoError(t, err)

	require.NotZero(t, logs.Len())
	assert.Equal(t, "brand.deactivate", logs.All()[0].ContextMap()["operation"])
}
