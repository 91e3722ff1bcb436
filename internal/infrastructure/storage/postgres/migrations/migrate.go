// Package migrations embeds the schema and applies it with golang-migrate.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"barpos/pkg/logger"
)

//go:embed *.sql
var files embed.FS

// Migrator applies the embedded migrations to one database.
type Migrator struct {
	migrate *migrate.Migrate
}

// New creates a Migrator for a postgres:// or postgresql:// URL.
func New(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, DriverURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{migrate: m}, nil
}

// DriverURL rewrites the scheme for the pgx/v5 migrate driver.
func DriverURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info(ctx, "migrations applied", "version", version, "dirty", dirty)
	return nil
}

// Down rolls back every migration.
func (m *Migrator) Down(ctx context.Context) error {
	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down: %w", err)
	}
	logger.Warn(ctx, "all migrations rolled back")
	return nil
}

// Version returns the applied version; 0 when nothing is applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
