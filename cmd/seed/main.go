// Package main seeds a demo bar through the services.
package main

import (
	"context"
	"fmt"
	"os"

	"barpos/internal/app"
	"barpos/internal/core/apperror"
	appctx "barpos/internal/core/context"
	"barpos/internal/infrastructure/config"
	"barpos/pkg/logger"
)

func main() {
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

	ctx := appctx.WithOperation(logger.WithLogger(context.Background(), log), "seed")

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to build app", "error", err)
	}
	defer a.Close()

	demo, err := a.SeedDemo(ctx)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeDuplicateActive {
			log.Warnw("database already seeded", "error", err)
			return
		}
		log.Fatalw("seeding failed", "error", err)
	}

	log.Infow("seed completed",
		"cash_desk", demo.CashDesk.ID,
		"bank", demo.Bank.ID,
		"tables", len(demo.Tables),
		"products", len(demo.Products))
}
