// Command ingest loads a previously generated dataset from JSON files and
// persists it to the warehouse in one transaction.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dkulenov/fraudlab/internal/config"
	"github.com/dkulenov/fraudlab/internal/domain"
	"github.com/dkulenov/fraudlab/internal/logging"
	"github.com/dkulenov/fraudlab/internal/store"
)

var errMissingDataset = errors.New("dataset file not found")

func main() {
	datasetDir := flag.String("dataset-dir", "data", "directory containing the dataset JSON files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	var (
		users     []domain.User
		devices   []domain.Device
		merchants []domain.Merchant
		labeled   []domain.LabeledTransaction
	)
	files := []struct {
		name   string
		target any
	}{
		{"users.json", &users},
		{"devices.json", &devices},
		{"merchants.json", &merchants},
		{"labeled_transactions.json", &labeled},
	}
	for _, f := range files {
		if err := loadJSON(filepath.Join(*datasetDir, f.name), f.target); err != nil {
			logger.Error("failed to load dataset file", "file", f.name, "error", err)
			os.Exit(1)
		}
	}
	if len(users) == 0 || len(labeled) == 0 {
		logger.Error("dataset empty", "dir", *datasetDir)
		os.Exit(1)
	}

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

	start := time.Now()
	run := store.Run{
		Users:      users,
		Devices:    devices,
		Merchants:  merchants,
		Labeled:    labeled,
		Reset:      cfg.Mode == config.ModeDev,
		IngestedAt: time.Now().UTC(),
	}

	logger.Info("ingesting dataset",
		"users", len(users), "devices", len(devices),
		"merchants", len(merchants), "transactions", len(labeled),
		"reset", run.Reset,
	)
	if err := st.SaveRun(ctx, run); err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String())
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
