package generator

import (
	"fmt"
	"math"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// Config drives the synthetic data generator. All distribution weights live
// here rather than in the generation code so alternative populations can be
// produced without touching the sampling logic.
type Config struct {
	NumUsers     int
	NumMerchants int
	// WindowDays is the length of the historical window transactions are
	// generated for, ending at the generator's clock.
	WindowDays int
	Seed       int64
	// Workers bounds the number of goroutines synthesizing per-user
	// transaction streams.
	Workers int

	// TxPerDay holds the mean daily transaction count per risk segment. The
	// per-day draw is normal with stddev = 0.3 × mean, floored at zero.
	TxPerDay map[domain.RiskSegment]float64

	// SegmentWeights governs risk segment assignment at user creation.
	SegmentWeights map[domain.RiskSegment]float64
	// DeviceCountWeights governs how many devices a user owns (1..n).
	DeviceCountWeights []float64
	// DeviceTypeWeights governs the mobile/web split.
	DeviceTypeWeights map[domain.DeviceType]float64
	// CategoryWeights is the categorical distribution over merchant
	// categories; it must sum to 1.
	CategoryWeights map[domain.Category]float64

	// Currencies is the fixed currency set transactions draw from, with the
	// uniform amount range per currency.
	AmountRanges map[domain.Currency]AmountRange

	// RoundAmountCategories lists categories whose amounts cluster on round
	// numbers, mimicking transfers and recurring payments.
	RoundAmountCategories map[domain.Category]bool
	// RoundSteps are the round-number granularities amounts snap to.
	RoundSteps []float64
	// TransferOutlierChance is the fraction of transfer amounts replaced by
	// heavy-tailed large outliers.
	TransferOutlierChance float64
}

// AmountRange bounds the uniform amount draw for a currency.
type AmountRange struct {
	Min float64
	Max float64
}

// DefaultConfig returns the baseline population used by the pipeline.
func DefaultConfig() Config {
	return Config{
		NumUsers:     500,
		NumMerchants: 10,
		WindowDays:   21,
		Seed:         42,
		Workers:      4,
		TxPerDay: map[domain.RiskSegment]float64{
			domain.SegmentLow:    3,
			domain.SegmentMedium: 5,
			domain.SegmentHigh:   10,
		},
		SegmentWeights: map[domain.RiskSegment]float64{
			domain.SegmentLow:    0.7,
			domain.SegmentMedium: 0.2,
			domain.SegmentHigh:   0.1,
		},
		DeviceCountWeights: []float64{0.7, 0.2, 0.1},
		DeviceTypeWeights: map[domain.DeviceType]float64{
			domain.DeviceMobile: 0.8,
			domain.DeviceWeb:    0.2,
		},
		CategoryWeights: map[domain.Category]float64{
			domain.CategoryFood:          0.28,
			domain.CategoryElectronics:   0.15,
			domain.CategoryTravel:        0.10,
			domain.CategorySubscriptions: 0.10,
			domain.CategoryFashion:       0.09,
			domain.CategoryEntertainment: 0.08,
			domain.CategoryHealth:        0.07,
			domain.CategoryUtilities:     0.07,
			domain.CategoryTransfer:      0.03,
			domain.CategoryGambling:      0.03,
		},
		AmountRanges: map[domain.Currency]AmountRange{
			domain.CurrencyUSD: {Min: 1, Max: 25000},
			domain.CurrencyEUR: {Min: 1, Max: 25000},
			domain.CurrencyRUB: {Min: 1, Max: 300000},
			domain.CurrencyKGS: {Min: 1, Max: 300000},
		},
		RoundAmountCategories: map[domain.Category]bool{
			domain.CategoryTransfer:      true,
			domain.CategorySubscriptions: true,
			domain.CategoryUtilities:     true,
		},
		RoundSteps:            []float64{10, 50, 100, 500, 1000},
		TransferOutlierChance: 0.02,
	}
}

// Validate checks the configuration before any sampling happens.
func (c Config) Validate() error {
	if c.NumUsers <= 0 {
		return fmt.Errorf("generator: NumUsers must be positive, got %d", c.NumUsers)
	}
	if c.NumMerchants <= 0 {
		return fmt.Errorf("generator: NumMerchants must be positive, got %d", c.NumMerchants)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("generator: WindowDays must be positive, got %d", c.WindowDays)
	}
	for seg, mean := range c.TxPerDay {
		if mean <= 0 {
			return fmt.Errorf("generator: TxPerDay[%s] must be positive, got %v", seg, mean)
		}
	}
	for _, seg := range []domain.RiskSegment{domain.SegmentLow, domain.SegmentMedium, domain.SegmentHigh} {
		if _, ok := c.TxPerDay[seg]; !ok {
			return fmt.Errorf("generator: TxPerDay missing segment %s", seg)
		}
		if c.SegmentWeights[seg] < 0 {
			return fmt.Errorf("generator: SegmentWeights[%s] must be non-negative", seg)
		}
	}
	if len(c.DeviceCountWeights) == 0 {
		return fmt.Errorf("generator: DeviceCountWeights must not be empty")
	}
	if len(c.AmountRanges) == 0 {
		return fmt.Errorf("generator: AmountRanges must not be empty")
	}
	for cur, r := range c.AmountRanges {
		if r.Min <= 0 || r.Max <= r.Min {
			return fmt.Errorf("generator: invalid amount range for %s: [%v, %v]", cur, r.Min, r.Max)
		}
	}
	if c.TransferOutlierChance < 0 || c.TransferOutlierChance > 1 {
		return fmt.Errorf("generator: TransferOutlierChance must be in [0,1], got %v", c.TransferOutlierChance)
	}

	var sum float64
	for cat, w := range c.CategoryWeights {
		if w < 0 {
			return fmt.Errorf("generator: CategoryWeights[%s] must be non-negative", cat)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("generator: CategoryWeights must sum to 1, got %v", sum)
	}
	return nil
}
