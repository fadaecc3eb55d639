package labeling

import (
	"fmt"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// ValidationError reports a labeled run whose realized fraud rate falls
// outside the configured bounds. It is a distinct type so operators can tell
// a rule-set or generator-parameter regression apart from configuration and
// integrity failures.
type ValidationError struct {
	Rate float64
	Min  float64
	Max  float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fraud rate %.4f outside expected range [%.4f, %.4f]", e.Rate, e.Min, e.Max)
}

// FraudRate returns the fraction of labeled transactions flagged as fraud.
func FraudRate(labeled []domain.LabeledTransaction) float64 {
	if len(labeled) == 0 {
		return 0
	}
	fraud := 0
	for _, tx := range labeled {
		if tx.IsFraud {
			fraud++
		}
	}
	return float64(fraud) / float64(len(labeled))
}

// ValidateFraudRate checks the realized rate against [min, max]. Results that
// fail the check must not be persisted.
func ValidateFraudRate(labeled []domain.LabeledTransaction, min, max float64) error {
	if len(labeled) == 0 {
		return fmt.Errorf("no labeled transactions to validate")
	}
	rate := FraudRate(labeled)
	if rate < min || rate > max {
		return &ValidationError{Rate: rate, Min: min, Max: max}
	}
	return nil
}
