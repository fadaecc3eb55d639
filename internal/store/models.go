package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// Row types map the domain model onto the warehouse schema. Entities land in
// raw/core tables; rule scores land in the mart layer, where the downstream
// feature ETL picks them up.

type userRow struct {
	UserID           string    `gorm:"column:user_id;primaryKey"`
	RegistrationDate time.Time `gorm:"column:registration_date"`
	HomeCountry      string    `gorm:"column:home_country"`
	RiskSegment      string    `gorm:"column:risk_segment"`
}

func (userRow) TableName() string { return "raw.users" }

type deviceRow struct {
	DeviceID   string    `gorm:"column:device_id;primaryKey"`
	UserID     string    `gorm:"column:user_id"`
	DeviceType string    `gorm:"column:device_type"`
	FirstSeen  time.Time `gorm:"column:first_seen_ts"`
}

func (deviceRow) TableName() string { return "core.devices" }

type merchantRow struct {
	MerchantID       string `gorm:"column:merchant_id;primaryKey"`
	MerchantCategory string `gorm:"column:merchant_category"`
}

func (merchantRow) TableName() string { return "core.merchants" }

type transactionRow struct {
	TransactionID      string          `gorm:"column:transaction_id;primaryKey"`
	UserID             string          `gorm:"column:user_id"`
	Amount             decimal.Decimal `gorm:"column:amount;type:numeric(18,2)"`
	Currency           string          `gorm:"column:currency"`
	MerchantID         string          `gorm:"column:merchant_id"`
	MerchantCategory   string          `gorm:"column:merchant_category"`
	TransactionCountry string          `gorm:"column:transaction_country"`
	DeviceID           string          `gorm:"column:device_id"`
	TransactionTS      time.Time       `gorm:"column:transaction_ts"`
	IngestionTS        time.Time       `gorm:"column:ingestion_ts"`
}

func (transactionRow) TableName() string { return "raw.transactions" }

type predictionRow struct {
	TransactionID    string         `gorm:"column:transaction_id;primaryKey"`
	FraudProbability float64        `gorm:"column:fraud_probability"`
	IsFraud          bool           `gorm:"column:is_fraud"`
	Reasons          datatypes.JSON `gorm:"column:reasons"`
	ModelVersion     string         `gorm:"column:model_version"`
	ScoreSource      string         `gorm:"column:score_source"`
	PredictionTS     time.Time      `gorm:"column:prediction_ts"`
}

func (predictionRow) TableName() string { return "mart.fraud_predictions" }

func toUserRows(users []domain.User) []userRow {
	rows := make([]userRow, len(users))
	for i, u := range users {
		rows[i] = userRow{
			UserID:           u.ID,
			RegistrationDate: u.RegistrationDate,
			HomeCountry:      u.HomeCountry,
			RiskSegment:      string(u.RiskSegment),
		}
	}
	return rows
}

func toDeviceRows(devices []domain.Device) []deviceRow {
	rows := make([]deviceRow, len(devices))
	for i, d := range devices {
		rows[i] = deviceRow{
			DeviceID:   d.ID,
			UserID:     d.UserID,
			DeviceType: string(d.Type),
			FirstSeen:  d.FirstSeen,
		}
	}
	return rows
}

func toMerchantRows(merchants []domain.Merchant) []merchantRow {
	rows := make([]merchantRow, len(merchants))
	for i, m := range merchants {
		rows[i] = merchantRow{
			MerchantID:       m.ID,
			MerchantCategory: string(m.Category),
		}
	}
	return rows
}

func toTransactionRows(labeled []domain.LabeledTransaction, ingestedAt time.Time) []transactionRow {
	rows := make([]transactionRow, len(labeled))
	for i, tx := range labeled {
		rows[i] = transactionRow{
			TransactionID:      tx.ID,
			UserID:             tx.UserID,
			Amount:             tx.Amount,
			Currency:           string(tx.Currency),
			MerchantID:         tx.MerchantID,
			MerchantCategory:   string(tx.MerchantCategory),
			TransactionCountry: tx.Country,
			DeviceID:           tx.DeviceID,
			TransactionTS:      tx.Timestamp,
			IngestionTS:        ingestedAt,
		}
	}
	return rows
}

func toPredictionRows(labeled []domain.LabeledTransaction, ingestedAt time.Time) ([]predictionRow, error) {
	rows := make([]predictionRow, len(labeled))
	for i, tx := range labeled {
		reasons, err := json.Marshal(tx.Reasons)
		if err != nil {
			return nil, fmt.Errorf("encode reasons for %s: %w", tx.ID, err)
		}
		rows[i] = predictionRow{
			TransactionID:    tx.ID,
			FraudProbability: tx.FraudScore,
			IsFraud:          tx.IsFraud,
			Reasons:          datatypes.JSON(reasons),
			ModelVersion:     ModelVersion,
			ScoreSource:      ScoreSource,
			PredictionTS:     ingestedAt,
		}
	}
	return rows, nil
}
