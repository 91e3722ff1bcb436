package app

import (
	"context"
	"fmt"

	"barpos/internal/core/numerator"
	"barpos/internal/core/tx"
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
	"barpos/internal/infrastructure/storage/memory"
	"barpos/internal/infrastructure/storage/postgres"
	"barpos/internal/infrastructure/storage/postgres/catalog_repo"
	"barpos/internal/infrastructure/storage/postgres/document_repo"
	"barpos/internal/infrastructure/storage/postgres/register_repo"
	pkgnumerator "barpos/pkg/numerator"
)

// Storage is the set of ports the services are built on. Both backends fill every field.
type Storage struct {
	TxManager tx.Manager
	Numerator numerator.Generator

	Accounts       account.Repository
	PaymentMethods paymentmethod.Repository
	Brands         brand.Repository
	Categories     category.Repository
	Providers      provider.Repository
	Bartables      bartable.Repository
	Employees      employee.Repository
	Products       product.Repository

	Sales        sale.Repository
	Transactions ledger.Repository

	close func()
}

// Close releases backend resources.
func (s Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// MemoryStorage builds a Storage on a fresh in-memory store.
func MemoryStorage() Storage {
	r := memory.NewRepositories()
	return Storage{
		TxManager:      r.Store,
		Numerator:      r.Numerator,
		Accounts:       r.Accounts,
		PaymentMethods: r.PaymentMethods,
		Brands:         r.Brands,
		Categories:     r.Categories,
		Providers:      r.Providers,
		Bartables:      r.Bartables,
		Employees:      r.Employees,
		Products:       r.Products,
		Sales:          r.Sales,
		Transactions:   r.Transactions,
	}
}

// PostgresStorage connects to cfg.URL and builds the pgx repositories.
func PostgresStorage(ctx context.Context, cfg config.DatabaseConfig) (Storage, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.URL)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return Storage{}, fmt.Errorf("connect database: %w", err)
	}

	txOpts := postgres.DefaultTxOptions()
	if cfg.StatementTimeout > 0 {
		txOpts.StatementTimeout = cfg.StatementTimeout
	}
	txm := postgres.NewTxManager(pool, txOpts)

	return Storage{
		TxManager: txm,
		Numerator: pkgnumerator.NewWithResolver(func(ctx context.Context) pkgnumerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		Accounts:       catalog_repo.NewAccountRepo(txm),
		PaymentMethods: catalog_repo.NewPaymentMethodRepo(txm),
		Brands:         catalog_repo.NewBrandRepo(txm),
		Categories:     catalog_repo.NewCategoryRepo(txm),
		Providers:      catalog_repo.NewProviderRepo(txm),
		Bartables:      catalog_repo.NewBartableRepo(txm),
		Employees:      catalog_repo.NewEmployeeRepo(txm),
		Products:       catalog_repo.NewProductRepo(txm),
		Sales:          document_repo.NewSaleRepo(txm),
		Transactions:   register_repo.NewTransactionRepo(txm),
		close: func() {
			pool.LogStats(ctx)
			pool.Close()
		},
	}, nil
}
