// Package main applies or rolls back the database schema.
//
// Usage: migrate up|down|version
package main

import (
	"context"
	"fmt"
	"os"

	"barpos/internal/infrastructure/config"
	"barpos/internal/infrastructure/storage/postgres/migrations"
	"barpos/pkg/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: migrate up|down|version")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		Fields:      map[string]any{"app": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if cfg.Database.InMemory() {
		log.Fatal(config.EnvPrefix + "_DATABASE_URL is required")
	}

	ctx := logger.WithLogger(context.Background(), log)

	m, err := migrations.New(cfg.Database.URL)
	if err != nil {
		log.Fatalw("failed to open migrations", "error", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warnw("failed to close migrator", "error", err)
		}
	}()

	switch os.Args[1] {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "version":
		var (
			version uint
			dirty   bool
		)
		if version, dirty, err = m.Version(); err == nil {
			log.Infow("schema version", "version", version, "dirty", dirty)
		}
	default:
		log.Fatalw("unknown command", "command", os.Args[1])
	}
	if err != nil {
		log.Fatalw("migration failed", "error", err)
	}
}
