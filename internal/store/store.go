// Package store is the persistence boundary of the pipeline. Implementations
// receive fully materialized, already-labeled collections and must write them
// all-or-nothing; the labeling engine knows nothing about the storage
// technology behind this interface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// Model metadata recorded with every rule-scored prediction.
const (
	ModelVersion = "rules_v1"
	ScoreSource  = "rules"
)

// ErrMissingDSN indicates no database connection string was provided.
var ErrMissingDSN = errors.New("database DSN is required")

// Run is one complete pipeline output handed to the store.
type Run struct {
	Users     []domain.User
	Devices   []domain.Device
	Merchants []domain.Merchant
	Labeled   []domain.LabeledTransaction

	// Reset truncates the raw tables before writing (DEV mode). When false
	// transactions are appended (INCREMENTAL mode); device and merchant
	// writes tolerate re-runs either way.
	Reset bool

	// IngestedAt is the system time recorded on persisted rows,
	// distinct from each transaction's event time.
	IngestedAt time.Time
}

// Store persists pipeline runs and executes downstream ETL stages.
type Store interface {
	// SaveRun writes the whole run inside a single transaction.
	SaveRun(ctx context.Context, run Run) error
	// ExecSQL runs one ETL script in its own transaction.
	ExecSQL(ctx context.Context, name, script string) error
	Close() error
}
