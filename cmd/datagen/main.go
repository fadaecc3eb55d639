// Command datagen produces a labeled synthetic dataset as JSON files, without
// touching a database. Useful for inspecting generator output and feeding the
// ingest command.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dkulenov/fraudlab/internal/generator"
	"github.com/dkulenov/fraudlab/internal/labeling"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users       = flag.Int("users", cfg.NumUsers, "number of users to generate")
		merchants   = flag.Int("merchants", cfg.NumMerchants, "number of merchants to generate")
		windowDays  = flag.Int("window-days", cfg.WindowDays, "length of the historical window in days")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		workers     = flag.Int("workers", cfg.Workers, "concurrent workers for transaction synthesis")
		outputDir   = flag.String("output-dir", "data", "directory to write the dataset files")
		writeStdout = flag.Bool("stdout", false, "write labeled transactions to stdout instead of files")
	)
	flag.Parse()

	genCfg := cfg
	genCfg.NumUsers = *users
	genCfg.NumMerchants = *merchants
	genCfg.WindowDays = *windowDays
	genCfg.Seed = *seed
	genCfg.Workers = *workers

	gen, err := generator.New(genCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid generator config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	engine := labeling.NewEngine(labeling.DefaultRuleSet())
	labeled, err := engine.Label(dataset.Transactions, dataset.Users)
	if err != nil {
		fmt.Fprintf(os.Stderr, "labeling failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(labeled); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write labeled transactions to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}
	if err := generator.WriteLabeled(labeled, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write labeled transactions: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d users, %d devices, %d merchants and %d transactions (fraud rate %.4f) into %s\n",
		len(dataset.Users), len(dataset.Devices), len(dataset.Merchants), len(labeled),
		labeling.FraudRate(labeled), *outputDir)
}
