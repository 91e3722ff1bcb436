package app

import (
	"context"
	"fmt"

	"barpos/internal/core/id"
	"barpos/internal/core/types"
	"barpos/internal/domain/catalogs/account"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/brand"
	"barpos/internal/domain/catalogs/category"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/catalogs/paymentmethod"
	"barpos/internal/domain/catalogs/product"
	"barpos/internal/domain/catalogs/provider"
	"barpos/internal/domain/registers/ledger"
	"barpos/pkg/logger"
)

// Demo is what SeedDemo created.
type Demo struct {
	CashDesk *account.Account
	Bank     *account.Account
	Cash     *paymentmethod.PaymentMethod
	Card     *paymentmethod.PaymentMethod

	Tables    []*bartable.Bartable
	Employees []*employee.Employee
	Products  []*product.Product
}

type demoProduct struct {
	code, name, price string
	brand, category   int
}

var (
	demoBrands     = []string{"Estrella", "Mahou", "House"}
	demoCategories = []string{"Beer", "Cocktails", "Soft drinks"}
	demoEmployees  = []struct {
		name string
		role employee.Role
	}{
		{"Ana", employee.RoleWaiter},
		{"Luis", employee.RoleBartender},
		{"Marta", employee.RoleManager},
	}
	demoProducts = []demoProduct{
		{"BEER-01", "Estrella lager", "3.50", 0, 0},
		{"BEER-02", "Mahou cinco estrellas", "3.80", 1, 0},
		{"MOJ-01", "Mojito", "8.00", 2, 1},
		{"GT-01", "Gin tonic", "9.50", 2, 1},
		{"COLA-01", "Cola", "2.50", -1, 2},
	}
)

// SeedDemo creates a small bar through the services: two accounts with a
// payment method each, six tables, staff, a menu and an opening float.
func (a *App) SeedDemo(ctx context.Context) (*Demo, error) {
	d := &Demo{}
	var err error

	if d.CashDesk, err = a.Accounts.Create(ctx, account.NewAccount("Cash desk")); err != nil {
		return nil, fmt.Errorf("seed account: %w", err)
	}
	if d.Bank, err = a.Accounts.Create(ctx, account.NewAccount("Bank")); err != nil {
		return nil, fmt.Errorf("seed account: %w", err)
	}
	if d.Cash, err = a.PaymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Cash", d.CashDesk.ID)); err != nil {
		return nil, fmt.Errorf("seed payment method: %w", err)
	}
	if d.Card, err = a.PaymentMethods.Create(ctx, paymentmethod.NewPaymentMethod("Card", d.Bank.ID)); err != nil {
		return nil, fmt.Errorf("seed payment method: %w", err)
	}

	for n := 1; n <= 6; n++ {
		t, err := a.Bartables.Create(ctx, bartable.NewBartable(n, 4))
		if err != nil {
			return nil, fmt.Errorf("seed bartable %d: %w", n, err)
		}
		d.Tables = append(d.Tables, t)
	}

	for _, e := range demoEmployees {
		emp, err := a.Employees.Create(ctx, employee.NewEmployee(e.name, e.role))
		if err != nil {
			return nil, fmt.Errorf("seed employee %s: %w", e.name, err)
		}
		d.Employees = append(d.Employees, emp)
	}

	brandIDs := make([]id.ID, 0, len(demoBrands))
	for _, name := range demoBrands {
		b, err := a.Brands.Create(ctx, brand.NewBrand(name))
		if err != nil {
			return nil, fmt.Errorf("seed brand %s: %w", name, err)
		}
		brandIDs = append(brandIDs, b.ID)
	}
	categoryIDs := make([]id.ID, 0, len(demoCategories))
	for _, name := range demoCategories {
		c, err := a.Categories.Create(ctx, category.NewCategory(name))
		if err != nil {
			return nil, fmt.Errorf("seed category %s: %w", name, err)
		}
		categoryIDs = append(categoryIDs, c.ID)
	}
	supplier, err := a.Providers.Create(ctx, provider.NewProvider("Distribuciones Norte"))
	if err != nil {
		return nil, fmt.Errorf("seed provider: %w", err)
	}

	for _, dp := range demoProducts {
		p := product.NewProduct(dp.code, dp.name, types.MustMoney(dp.price))
		if dp.brand >= 0 {
			p.BrandID = id.Ptr(brandIDs[dp.brand])
		}
		p.CategoryID = id.Ptr(categoryIDs[dp.category])
		p.ProviderID = id.Ptr(supplier.ID)
		if p, err = a.Products.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("seed product %s: %w", dp.code, err)
		}
		d.Products = append(d.Products, p)
	}

	if _, err := a.Ledger.RecordMovement(ctx, d.CashDesk.ID, ledger.TypeIncome, types.MustMoney("100"), "Opening float"); err != nil {
		return nil, fmt.Errorf("seed opening float: %w", err)
	}

	logger.Info(ctx, "demo data seeded",
		"tables", len(d.Tables),
		"employees", len(d.Employees),
		"products", len(d.Products))
	return d, nil
}
