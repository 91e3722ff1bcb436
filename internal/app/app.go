// Package app is the composition root: it builds storage and wires every service.
package app

import (
	"context"

	"barpos/internal/domain/catalogs/account"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/brand"
	"barpos/internal/domain/catalogs/category"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/catalogs/paymentmethod"
	"barpos/internal/domain/catalogs/product"
	"barpos/internal/domain/catalogs/provider"
	"barpos/internal/domain/documents/sale"
	"barpos/internal/domain/registers/ledger"
	"barpos/internal/infrastructure/config"
	"barpos/pkg/logger"
)

// App holds the wired services.
type App struct {
	Accounts       *account.Service
	PaymentMethods *paymentmethod.Service
	Brands         *brand.Service
	Categories     *category.Service
	Providers      *provider.Service
	Bartables      *bartable.Service
	Employees      *employee.Service
	Products       *product.Service

	Ledger *ledger.Recorder
	Sales  *sale.Service

	storage Storage
}

// New builds storage from cfg and wires the services on it.
// An empty database URL selects the in-memory store.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Database.InMemory() {
		logger.Warn(ctx, "no database configured, using in-memory storage")
		return Wire(MemoryStorage()), nil
	}

	s, err := PostgresStorage(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "postgres storage ready")
	return Wire(s), nil
}

// Wire builds every service on s. Dependents and activation ports are
// connected here; services never reach each other's repositories directly.
func Wire(s Storage) *App {
	txm := s.TxManager

	accounts := account.NewService(s.Accounts, txm, s.PaymentMethods)
	brands := brand.NewService(s.Brands, txm, s.Products)
	categories := category.NewService(s.Categories, txm, s.Products)
	providers := provider.NewService(s.Providers, txm, s.Products)

	recorder := ledger.NewRecorder(s.Transactions, s.Accounts, txm)

	return &App{
		Accounts:       accounts,
		PaymentMethods: paymentmethod.NewService(s.PaymentMethods, txm, accounts.Activation()),
		Brands:         brands,
		Categories:     categories,
		Providers:      providers,
		Bartables:      bartable.NewService(s.Bartables, txm, s.Sales),
		Employees:      employee.NewService(s.Employees, txm, s.Sales),
		Products: product.NewService(s.Products, txm, product.Refs{
			Brands:     brands.Activation(),
			Categories: categories.Activation(),
			Providers:  providers.Activation(),
		}),
		Ledger: recorder,
		Sales: sale.NewService(s.Sales, sale.Lookups{
			Bartables:      s.Bartables,
			Employees:      s.Employees,
			Products:       s.Products,
			PaymentMethods: s.PaymentMethods,
		}, recorder, s.Numerator, txm),
		storage: s,
	}
}

// Close releases storage resources.
func (a *App) Close() {
	a.storage.Close()
}
