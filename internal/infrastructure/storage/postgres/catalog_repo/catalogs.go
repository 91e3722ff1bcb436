package catalog_repo

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
	"barpos/internal/infrastructure/storage/postgres"
)

func named(table, entity string, foreignKeys ...string) Table {
	return Table{
		Name:        table,
		Entity:      entity,
		KeyColumn:   "normalized_name",
		LabelColumn: "name",
		ForeignKeys: foreignKeys,
	}
}

// AccountRepo stores accounts.
type AccountRepo = BaseCatalogRepo[*account.Account]

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return NewBaseCatalogRepo(txm, named("accounts", "account"),
		postgres.Columns[account.Account](), func() *account.Account { return new(account.Account) })
}

// PaymentMethodRepo stores payment methods; accounts count them as dependents.
type PaymentMethodRepo = BaseCatalogRepo[*paymentmethod.PaymentMethod]

// NewPaymentMethodRepo creates a new payment method repository.
func NewPaymentMethodRepo(txm *postgres.TxManager) *PaymentMethodRepo {
	return NewBaseCatalogRepo(txm, named("payment_methods", "payment method", account.PaymentMethodRef),
		postgres.Columns[paymentmethod.PaymentMethod](), func() *paymentmethod.PaymentMethod { return new(paymentmethod.PaymentMethod) })
}

// BrandRepo stores brands.
type BrandRepo = BaseCatalogRepo[*brand.Brand]

// NewBrandRepo creates a new brand repository.
func NewBrandRepo(txm *postgres.TxManager) *BrandRepo {
	return NewBaseCatalogRepo(txm, named("brands", "brand"),
		postgres.Columns[brand.Brand](), func() *brand.Brand { return new(brand.Brand) })
}

// CategoryRepo stores categories.
type CategoryRepo = BaseCatalogRepo[*category.Category]

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txm *postgres.TxManager) *CategoryRepo {
	return NewBaseCatalogRepo(txm, named("categories", "category"),
		postgres.Columns[category.Category](), func() *category.Category { return new(category.Category) })
}

// ProviderRepo stores providers.
type ProviderRepo = BaseCatalogRepo[*provider.Provider]

// NewProviderRepo creates a new provider repository.
func NewProviderRepo(txm *postgres.TxManager) *ProviderRepo {
	return NewBaseCatalogRepo(txm, named("providers", "provider"),
		postgres.Columns[provider.Provider](), func() *provider.Provider { return new(provider.Provider) })
}

// EmployeeRepo stores employees.
type EmployeeRepo = BaseCatalogRepo[*employee.Employee]

// NewEmployeeRepo creates a new employee repository.
func NewEmployeeRepo(txm *postgres.TxManager) *EmployeeRepo {
	return NewBaseCatalogRepo(txm, named("employees", "employee"),
		postgres.Columns[employee.Employee](), func() *employee.Employee { return new(employee.Employee) })
}

// BartableRepo stores tables, keyed by their number.
type BartableRepo = BaseCatalogRepo[*bartable.Bartable]

// NewBartableRepo creates a new bartable repository.
func NewBartableRepo(txm *postgres.TxManager) *BartableRepo {
	return NewBaseCatalogRepo(txm, Table{
		Name:        "bartables",
		Entity:      "bartable",
		KeyColumn:   "number",
		LabelColumn: "number",
		KeyArg: func(key string) (any, error) {
			return strconv.Atoi(key)
		},
	}, postgres.Columns[bartable.Bartable](), func() *bartable.Bartable { return new(bartable.Bartable) })
}

// ProductRepo stores products, keyed by normalized code. Brands, categories
// and providers count them as dependents.
type ProductRepo = BaseCatalogRepo[*product.Product]

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return NewBaseCatalogRepo(txm, Table{
		Name:        "products",
		Entity:      "product",
		KeyColumn:   "normalized_code",
		LabelColumn: "name",
		ForeignKeys: []string{brand.ProductRef, category.ProductRef, provider.ProductRef},
	}, postgres.Columns[product.Product](), func() *product.Product { return new(product.Product) })
}

var (
	_ account.Repository       = (*AccountRepo)(nil)
	_ paymentmethod.Repository = (*PaymentMethodRepo)(nil)
	_ brand.Repository         = (*BrandRepo)(nil)
	_ category.Repository      = (*CategoryRepo)(nil)
	_ provider.Repository      = (*ProviderRepo)(nil)
	_ employee.Repository      = (*EmployeeRepo)(nil)
	_ bartable.Repository      = (*BartableRepo)(nil)
	_ product.Repository       = (*ProductRepo)(nil)
)
