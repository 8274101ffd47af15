package main

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fleetops/fuelimport/internal/config"
	"github.com/fleetops/fuelimport/internal/importer"
	"github.com/fleetops/fuelimport/internal/logging"
	"github.com/fleetops/fuelimport/internal/resolve"
	"github.com/fleetops/fuelimport/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "fuelimport",
	Short: "Import fuel and toll transaction exports into the fleet database",
	Long: `fuelimport ingests CSV exports from external billing systems: it detects
the file encoding, classifies the layout from the header, validates and
normalizes each row, resolves vehicles and stations, skips duplicates, and
persists the transactions with a full audit trail.

Supported layouts:
  detail_fuel   per-fueling detail export
  billing_v1    invoice export keyed by vehicle number
  billing_v2    invoice export keyed by card number

Examples:
  fuelimport import billing_202505.csv
  fuelimport import-dir ./exports --pattern "*.csv"
  fuelimport batches --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	store    *store.Store
	importer *importer.Importer
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// bootstrap loads configuration, configures logging, connects the pool,
// and wires the importer. Every data command starts here.
func bootstrap(ctx context.Context) (*app, error) {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	st := store.New(pool, slog.Default())
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	im := importer.New(st, resolve.New(pool), importer.Config{
		ChunkSize:       cfg.Import.ChunkSize,
		MaxFileSize:     cfg.Import.MaxFileSize,
		MaxErrorsInline: cfg.Import.MaxErrorsInline,
		MaxConcurrent:   cfg.Import.MaxConcurrent,
	}, slog.Default())

	return &app{cfg: cfg, pool: pool, store: st, importer: im}, nil
}

// timeoutContext bounds one file import by the configured timeout.
func timeoutContext(ctx context.Context, a *app) (context.Context, context.CancelFunc) {
	if a.cfg.Import.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Import.Timeout)
}
