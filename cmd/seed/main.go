// Command seed applies migrations and loads the demo accounts and courses
// into an empty database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"classroll/internal/config"
	"classroll/internal/logger"
	"classroll/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	dsn := pflag.String("database-url", cfg.DatabaseURL, "postgres connection string")
	migrate := pflag.Bool("migrate", true, "apply schema migrations before seeding")
	pflag.Parse()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), *dsn, *migrate, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, dsn string, migrate bool, log *zap.Logger) error {
	db, err := store.NewDB(ctx, dsn, store.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if migrate {
		if err := store.RunMigrations(db.Client.DB, log); err != nil {
			return err
		}
	}
	return store.SeedDemo(ctx, db.Client, log)
}
