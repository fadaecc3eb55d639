package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const insertBatchSize = 500

// PostgresStore persists runs to the Postgres warehouse through GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgres opens a connection to the warehouse and verifies it.
func NewPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access underlying connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// SaveRun writes the whole run in one database transaction: either every row
// lands or none do. Device and merchant inserts skip conflicts so re-runs are
// idempotent; transaction inserts assume fresh tables in reset mode and
// append otherwise.
func (s *PostgresStore) SaveRun(ctx context.Context, run Run) error {
	predictions, err := toPredictionRows(run.Labeled, run.IngestedAt)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if run.Reset {
			if err := tx.Exec("TRUNCATE TABLE raw.transactions, raw.users CASCADE").Error; err != nil {
				return fmt.Errorf("reset raw tables: %w", err)
			}
		}

		if err := tx.CreateInBatches(toUserRows(run.Users), insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert users: %w", err)
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(toDeviceRows(run.Devices), insertBatchSize).Error; err != nil {
			return fmt.Errorf("upsert devices: %w", err)
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(toMerchantRows(run.Merchants), insertBatchSize).Error; err != nil {
			return fmt.Errorf("upsert merchants: %w", err)
		}

		if err := tx.CreateInBatches(toTransactionRows(run.Labeled, run.IngestedAt), insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(predictions, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert fraud predictions: %w", err)
		}

		return nil
	})
}

// ExecSQL runs one ETL stage script inside its own transaction.
func (s *PostgresStore) ExecSQL(ctx context.Context, name, script string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(script).Error
	})
	if err != nil {
		return fmt.Errorf("etl stage %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
