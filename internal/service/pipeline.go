// Package service orchestrates the pipeline: generation, labeling, the
// fraud-rate sanity check, transactional persistence, and the downstream ETL
// trigger.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkulenov/fraudlab/internal/config"
	"github.com/dkulenov/fraudlab/internal/domain"
	"github.com/dkulenov/fraudlab/internal/generator"
	"github.com/dkulenov/fraudlab/internal/labeling"
	"github.com/dkulenov/fraudlab/internal/store"
)

// Pipeline runs one full generation-to-persistence cycle.
type Pipeline struct {
	cfg    config.Config
	store  store.Store
	rules  labeling.RuleSet
	logger *slog.Logger
	nowFn  func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	Users        int
	Devices      int
	Merchants    int
	Transactions int
	FraudRate    float64
}

// NewPipeline wires a pipeline against the given store. A nil logger falls
// back to slog's default.
func NewPipeline(cfg config.Config, st store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		store:  st,
		rules:  labeling.DefaultRuleSet(),
		logger: logger,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source used for generation windows and
// ingestion timestamps.
func (p *Pipeline) WithClock(nowFn func() time.Time) *Pipeline {
	if nowFn != nil {
		p.nowFn = nowFn
	}
	return p
}

// WithRules swaps the rule table used for labeling.
func (p *Pipeline) WithRules(rules labeling.RuleSet) *Pipeline {
	p.rules = rules
	return p
}

// Run executes the full pipeline. Nothing is persisted unless generation,
// labeling, and the fraud-rate sanity check all succeed.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	gen, err := generator.New(generatorConfig(p.cfg))
	if err != nil {
		return Result{}, err
	}
	gen.WithClock(p.nowFn)

	start := p.nowFn()
	p.logger.Info("generating dataset",
		"mode", string(p.cfg.Mode),
		"seed", p.cfg.Seed,
		"users", p.cfg.Generator.NumUsers,
		"window_days", p.cfg.Generator.WindowDays,
	)

	dataset, err := gen.Generate(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("generate dataset: %w", err)
	}

	labeled, err := p.Label(dataset)
	if err != nil {
		return Result{}, err
	}

	rate := labeling.FraudRate(labeled)
	p.logger.Info("labeling complete", "transactions", len(labeled), "fraud_rate", rate)

	if err := labeling.ValidateFraudRate(labeled, p.cfg.Sanity.MinFraudRate, p.cfg.Sanity.MaxFraudRate); err != nil {
		return Result{}, err
	}

	run := store.Run{
		Users:      dataset.Users,
		Devices:    dataset.Devices,
		Merchants:  dataset.Merchants,
		Labeled:    labeled,
		Reset:      p.cfg.Mode == config.ModeDev,
		IngestedAt: p.nowFn(),
	}
	if err := p.store.SaveRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("persist run: %w", err)
	}

	p.logger.Info("run persisted",
		"duration", time.Since(start).String(),
		"users", len(dataset.Users),
		"transactions", len(labeled),
	)

	return Result{
		Users:        len(dataset.Users),
		Devices:      len(dataset.Devices),
		Merchants:    len(dataset.Merchants),
		Transactions: len(labeled),
		FraudRate:    rate,
	}, nil
}

// Label scores a generated dataset with the pipeline's rule table.
func (p *Pipeline) Label(dataset generator.Dataset) ([]domain.LabeledTransaction, error) {
	engine := labeling.NewEngine(p.rules)
	labeled, err := engine.Label(dataset.Transactions, dataset.Users)
	if err != nil {
		return nil, fmt.Errorf("label transactions: %w", err)
	}
	return labeled, nil
}

// RunETL executes the .sql stage files found in dir, in lexical order, each
// in its own transaction. Stage ordering is encoded in the file names.
func (p *Pipeline) RunETL(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read etl dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		script, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read etl stage %s: %w", entry.Name(), err)
		}
		p.logger.Info("running etl stage", "stage", entry.Name())
		if err := p.store.ExecSQL(ctx, entry.Name(), string(script)); err != nil {
			return err
		}
	}
	return nil
}

func generatorConfig(cfg config.Config) generator.Config {
	gen := generator.DefaultConfig()
	gen.NumUsers = cfg.Generator.NumUsers
	gen.NumMerchants = cfg.Generator.NumMerchants
	gen.WindowDays = cfg.Generator.WindowDays
	gen.Seed = cfg.Seed
	gen.Workers = cfg.Generator.Workers
	gen.TxPerDay = map[domain.RiskSegment]float64{
		domain.SegmentLow:    cfg.Generator.TxPerDayLow,
		domain.SegmentMedium: cfg.Generator.TxPerDayMedium,
		domain.SegmentHigh:   cfg.Generator.TxPerDayHigh,
	}
	return gen
}
