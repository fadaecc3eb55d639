package labeling

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// ErrUnknownUser indicates a transaction referencing a user absent from the
// metadata lookup. The generators guarantee referential integrity, so this is
// a precondition violation, not a recoverable condition.
var ErrUnknownUser = errors.New("transaction references unknown user")

// ErrUnordered indicates LabelOrdered was handed input that is not in
// ascending timestamp order.
var ErrUnordered = errors.New("transactions not in ascending timestamp order")

// Engine assigns fraud scores and labels by replaying transactions in global
// timestamp order. It is a single-threaded, single-pass algorithm: every step
// depends on the rolling state left behind by all earlier steps, so the
// replay cannot be parallelized across transactions.
type Engine struct {
	rules RuleSet
}

// NewEngine builds an engine around the given rule set.
func NewEngine(rules RuleSet) *Engine {
	return &Engine{rules: rules}
}

// userState is the rolling per-user state for one labeling pass. It is
// created lazily on a user's first transaction and discarded with the pass;
// state never leaks across runs.
type userState struct {
	// history holds every prior timestamp for the user, unpruned. Velocity
	// lookups scan it linearly, which is fine at the volumes this pipeline
	// generates.
	history []time.Time
	devices map[string]struct{}
}

// Label scores an unordered batch. It stable-sorts a copy by timestamp —
// insertion order breaks ties, keeping the pass deterministic — and replays
// it. The returned slice is in ascending timestamp order; that ordering is
// part of the output contract.
func (e *Engine) Label(txs []domain.Transaction, users []domain.User) ([]domain.LabeledTransaction, error) {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	return e.LabelOrdered(ordered, users)
}

// LabelOrdered scores a batch that is already in ascending timestamp order.
// The ordering is validated, not assumed: it is the mechanism that keeps the
// velocity and new-device features causal, so violating it is an error.
func (e *Engine) LabelOrdered(txs []domain.Transaction, users []domain.User) ([]domain.LabeledTransaction, error) {
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	states := make(map[string]*userState)
	labeled := make([]domain.LabeledTransaction, 0, len(txs))

	for i, tx := range txs {
		if i > 0 && tx.Timestamp.Before(txs[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: index %d (%s)", ErrUnordered, i, tx.ID)
		}

		user, ok := byID[tx.UserID]
		if !ok {
			return nil, fmt.Errorf("%w: user %s (transaction %s)", ErrUnknownUser, tx.UserID, tx.ID)
		}

		state := states[tx.UserID]
		if state == nil {
			state = &userState{devices: make(map[string]struct{})}
			states[tx.UserID] = state
		}

		ctx := Context{
			Timestamp:        tx.Timestamp,
			Country:          tx.Country,
			MerchantCategory: tx.MerchantCategory,
			TxCountLastHour:  state.countWithin(tx.Timestamp, e.rules.VelocityWindow),
			IsNewDevice:      !state.seenDevice(tx.DeviceID),
			HomeCountry:      user.HomeCountry,
			RegistrationDate: user.RegistrationDate,
			RiskSegment:      user.RiskSegment,
		}

		score, reasons := e.rules.Score(ctx)
		labeled = append(labeled, domain.LabeledTransaction{
			Transaction: tx,
			FraudScore:  score,
			IsFraud:     score >= e.rules.Threshold,
			Reasons:     reasons,
		})

		// State is updated only after the features above are computed, so a
		// transaction never counts itself as a prior occurrence.
		state.history = append(state.history, tx.Timestamp)
		state.devices[tx.DeviceID] = struct{}{}
	}

	return labeled, nil
}

func (s *userState) countWithin(ts time.Time, window time.Duration) int {
	count := 0
	for _, h := range s.history {
		if ts.Sub(h) <= window {
			count++
		}
	}
	return count
}

func (s *userState) seenDevice(deviceID string) bool {
	_, ok := s.devices[deviceID]
	return ok
}
