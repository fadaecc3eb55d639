package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 code from the fixed set the synthesizer supports.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
	CurrencyKGS Currency = "KGS"
)

// Transaction is a single payment event. Created once by the synthesizer and
// never mutated; labeling derives a new record instead of writing back.
type Transaction struct {
	ID               string          `json:"transaction_id"`
	UserID           string          `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         Currency        `json:"currency"`
	MerchantID       string          `json:"merchant_id"`
	MerchantCategory Category        `json:"merchant_category"`
	Country          string          `json:"transaction_country"`
	DeviceID         string          `json:"device_id"`
	Timestamp        time.Time       `json:"transaction_ts"`
}

// LabeledTransaction is a Transaction augmented with its fraud verdict.
// Produced exactly once per transaction; Reasons preserves rule evaluation
// order so explanations are reproducible.
type LabeledTransaction struct {
	Transaction
	FraudScore float64  `json:"fraud_score"`
	IsFraud    bool     `json:"is_fraud"`
	Reasons    []string `json:"reasons"`
}
