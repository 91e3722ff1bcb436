package memory

import (
	"strconv"

	"barpos/internal/domain/catalogs/account"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/brand"
	"barpos/internal/domain/catalogs/category"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/catalogs/paymentmethod"
	"barpos/internal/domain/catalogs/product"
	"barpos/internal/domain/catalogs/provider"
)

// Repositories bundles every repository sharing one Store.
type Repositories struct {
	Store *Store

	Accounts       *CatalogRepo[*account.Account]
	Brands         *CatalogRepo[*brand.Brand]
	Categories     *CatalogRepo[*category.Category]
	PaymentMethods *CatalogRepo[*paymentmethod.PaymentMethod]
	Providers      *CatalogRepo[*provider.Provider]
	Bartables      *CatalogRepo[*bartable.Bartable]
	Employees      *CatalogRepo[*employee.Employee]
	Products       *CatalogRepo[*product.Product]

	Sales        *SaleRepo
	Transactions *TransactionRepo
	Numerator    *Numerator
}

// NewRepositories creates an empty store with every table registered.
func NewRepositories() *Repositories {
	s := NewStore()
	return &Repositories{
		Store:          s,
		Accounts:       NewCatalogRepo[account.Account](s, "account", func(e *account.Account) string { return e.Name }),
		Brands:         NewCatalogRepo[brand.Brand](s, "brand", func(e *brand.Brand) string { return e.Name }),
		Categories:     NewCatalogRepo[category.Category](s, "category", func(e *category.Category) string { return e.Name }),
		PaymentMethods: NewCatalogRepo[paymentmethod.PaymentMethod](s, "payment method", func(e *paymentmethod.PaymentMethod) string { return e.Name }),
		Providers:      NewCatalogRepo[provider.Provider](s, "provider", func(e *provider.Provider) string { return e.Name }),
		Bartables:      NewCatalogRepo[bartable.Bartable](s, "bartable", func(e *bartable.Bartable) string { return strconv.Itoa(e.Number) }),
		Employees:      NewCatalogRepo[employee.Employee](s, "employee", func(e *employee.Employee) string { return e.Name }),
		Products:       NewCatalogRepo[product.Product](s, "product", func(e *product.Product) string { return e.Name }),
		Sales:          NewSaleRepo(s),
		Transactions:   NewTransactionRepo(s),
		Numerator:      NewNumerator(s),
	}
}

var (
	_ account.Repository       = (*CatalogRepo[*account.Account])(nil)
	_ paymentmethod.Repository = (*CatalogRepo[*paymentmethod.PaymentMethod])(nil)
	_ product.Repository       = (*CatalogRepo[*product.Product])(nil)
	_ bartable.Repository      = (*CatalogRepo[*bartable.Bartable])(nil)
)
