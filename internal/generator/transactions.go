package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// GenerateTransactions synthesizes each user's transaction stream over the
// historical window. Every transaction is sampled independently; no state is
// carried between transactions, and ordering across users is arbitrary at
// this stage.
//
// Users are processed by a worker pool, each with its own sub-seeded source,
// so the output is identical regardless of goroutine scheduling.
func (g *Generator) GenerateTransactions(
	ctx context.Context,
	users []domain.User,
	devices []domain.Device,
	merchants []domain.Merchant,
) ([]domain.Transaction, error) {
	if len(merchants) == 0 {
		return nil, fmt.Errorf("generator: no merchants to transact with")
	}

	devicesByUser := make(map[string][]domain.Device, len(users))
	for _, d := range devices {
		devicesByUser[d.UserID] = append(devicesByUser[d.UserID], d)
	}

	windowStart := truncateToDay(g.now()).AddDate(0, 0, -g.cfg.WindowDays)
	currencies := g.currencyList()

	perUser := make([][]domain.Transaction, len(users))
	err := runParallel(ctx, len(users), g.cfg.Workers, func(idx int) error {
		u := users[idx]
		devs := devicesByUser[u.ID]
		if len(devs) == 0 {
			return fmt.Errorf("generator: user %s has no devices", u.ID)
		}
		r := rand.New(rand.NewSource(userSeed(g.cfg.Seed, idx)))
		perUser[idx] = g.userTransactions(r, u, devs, merchants, currencies, windowStart)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	for _, userTxs := range perUser {
		txs = append(txs, userTxs...)
	}
	return txs, nil
}

func (g *Generator) userTransactions(
	r *rand.Rand,
	u domain.User,
	devs []domain.Device,
	merchants []domain.Merchant,
	currencies []domain.Currency,
	windowStart time.Time,
) []domain.Transaction {
	mean := g.cfg.TxPerDay[u.RiskSegment]

	var txs []domain.Transaction
	for day := 0; day < g.cfg.WindowDays; day++ {
		dayStart := windowStart.AddDate(0, 0, day)

		// Normal draw with stddev = 0.3 × mean; negative draws clamp to a
		// quiet day rather than erroring.
		count := int(r.NormFloat64()*mean*0.3 + mean)
		if count < 0 {
			count = 0
		}

		for i := 0; i < count; i++ {
			device := devs[r.Intn(len(devs))]
			merchant := merchants[r.Intn(len(merchants))]
			currency := currencies[r.Intn(len(currencies))]

			txs = append(txs, domain.Transaction{
				ID:               newID(r),
				UserID:           u.ID,
				Amount:           g.sampleAmount(r, currency, merchant.Category),
				Currency:         currency,
				MerchantID:       merchant.ID,
				MerchantCategory: merchant.Category,
				Country:          countryCodes[r.Intn(len(countryCodes))],
				DeviceID:         device.ID,
				Timestamp:        dayStart.Add(time.Duration(r.Int63n(int64(24 * time.Hour)))),
			})
		}
	}
	return txs
}

// sampleAmount draws an amount from the currency- and category-specific
// model: round-number clustering for transfer-like categories, rare
// heavy-tailed outliers for transfers, a plain uniform range otherwise.
func (g *Generator) sampleAmount(r *rand.Rand, currency domain.Currency, category domain.Category) decimal.Decimal {
	bounds := g.cfg.AmountRanges[currency]
	uniform := bounds.Min + r.Float64()*(bounds.Max-bounds.Min)

	if category == domain.CategoryTransfer && r.Float64() < g.cfg.TransferOutlierChance {
		// Exponential tail on top of the range maximum.
		outlier := bounds.Max * (1 + r.ExpFloat64())
		return decimal.NewFromFloat(outlier).Round(2)
	}

	if g.cfg.RoundAmountCategories[category] {
		step := g.cfg.RoundSteps[r.Intn(len(g.cfg.RoundSteps))]
		rounded := math.Floor(uniform/step) * step
		if rounded < step {
			rounded = step
		}
		return decimal.NewFromFloat(rounded).Round(2)
	}

	return decimal.NewFromFloat(uniform).Round(2)
}

// currencyList returns the configured currencies in a fixed order so that
// sampling stays deterministic.
func (g *Generator) currencyList() []domain.Currency {
	all := []domain.Currency{domain.CurrencyUSD, domain.CurrencyEUR, domain.CurrencyRUB, domain.CurrencyKGS}
	var out []domain.Currency
	for _, c := range all {
		if _, ok := g.cfg.AmountRanges[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// userSeed derives an independent per-user seed from the master seed. Users
// keep their streams when the population grows, and two users never share a
// stream.
func userSeed(seed int64, idx int) int64 {
	return seed ^ (int64(idx+1) * 0x5DEECE66D)
}
