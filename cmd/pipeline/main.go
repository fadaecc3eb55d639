// Command pipeline runs the full cycle: generate a synthetic population,
// label its transactions, validate the realized fraud rate, persist
// everything transactionally, and trigger the downstream SQL ETL stages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkulenov/fraudlab/internal/config"
	"github.com/dkulenov/fraudlab/internal/labeling"
	"github.com/dkulenov/fraudlab/internal/logging"
	"github.com/dkulenov/fraudlab/internal/service"
	"github.com/dkulenov/fraudlab/internal/store"
)

func main() {
	etlDir := flag.String("etl-dir", "", "directory of ETL stage .sql files to run after persistence (skipped when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "pipeline")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.NewPostgres(cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	pipeline := service.NewPipeline(cfg, st, logger)

	result, err := pipeline.Run(ctx)
	if err != nil {
		var validationErr *labeling.ValidationError
		if errors.As(err, &validationErr) {
			logger.Error("fraud rate sanity check failed, nothing persisted", "error", err)
		} else {
			logger.Error("pipeline run failed", "error", err)
		}
		os.Exit(1)
	}

	logger.Info("pipeline run complete",
		"users", result.Users,
		"devices", result.Devices,
		"merchants", result.Merchants,
		"transactions", result.Transactions,
		"fraud_rate", result.FraudRate,
	)

	if *etlDir != "" {
		if err := pipeline.RunETL(ctx, *etlDir); err != nil {
			logger.Error("etl failed", "error", err)
			os.Exit(1)
		}
		logger.Info("etl complete", "dir", *etlDir)
	}
}
