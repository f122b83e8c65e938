package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/merosman91/Agricultural-Tractor/internal/cli"
	"github.com/merosman91/Agricultural-Tractor/internal/config"
	"github.com/merosman91/Agricultural-Tractor/internal/db"
	"github.com/merosman91/Agricultural-Tractor/internal/logging"
	"github.com/merosman91/Agricultural-Tractor/internal/repository"
	"github.com/merosman91/Agricultural-Tractor/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional config file; env vars and .env still apply without it.
	cfg, err := config.Load(os.Getenv("TRACTORLOG_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, "tractorlog")
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire persistence through the unit of work
	uow := db.NewSQLiteUnitOfWork(database)
	blobs := repository.NewSQLiteBlobStore(database, uow)

	// Wire services
	store, err := service.NewRecordStore(context.Background(), blobs, cfg.StorageKey,
		service.WithDefaultRate(cfg.DefaultHourlyRate),
		service.WithLogger(logger.Named("records")),
		service.WithObserver(service.NewLogUseCaseObserver(logger.Named("usecase"))),
	)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	logger.Debug("records loaded", zap.Int("count", len(store.Snapshot())), zap.String("db", cfg.DBPath))

	app := &cli.App{
		Records: store,
		Reports: service.NewCustomerAggregator(store, cfg.Currency),
		Config:  cfg,
		Logger:  logger,
	}

	// Forms only run on an interactive terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
