package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// Dataset contains one generated population with its transaction stream.
type Dataset struct {
	Users        []domain.User        `json:"users"`
	Devices      []domain.Device      `json:"devices"`
	Merchants    []domain.Merchant    `json:"merchants"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Generator produces synthetic users, devices, merchants and transactions.
// All sampling is driven by a single seeded source, so a fixed seed and a
// fixed clock reproduce the dataset byte for byte.
type Generator struct {
	cfg  Config
	rand *rand.Rand
	now  func() time.Time
}

// New returns a configured Generator. Zero-valued sizing fields fall back to
// DefaultConfig; an invalid distribution table is a configuration error.
func New(cfg Config) (*Generator, error) {
	def := DefaultConfig()
	if cfg.NumUsers == 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumMerchants == 0 {
		cfg.NumMerchants = def.NumMerchants
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = def.WindowDays
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.TxPerDay == nil {
		cfg.TxPerDay = def.TxPerDay
	}
	if cfg.SegmentWeights == nil {
		cfg.SegmentWeights = def.SegmentWeights
	}
	if cfg.DeviceCountWeights == nil {
		cfg.DeviceCountWeights = def.DeviceCountWeights
	}
	if cfg.DeviceTypeWeights == nil {
		cfg.DeviceTypeWeights = def.DeviceTypeWeights
	}
	if cfg.CategoryWeights == nil {
		cfg.CategoryWeights = def.CategoryWeights
	}
	if cfg.AmountRanges == nil {
		cfg.AmountRanges = def.AmountRanges
	}
	if cfg.RoundAmountCategories == nil {
		cfg.RoundAmountCategories = def.RoundAmountCategories
	}
	if cfg.RoundSteps == nil {
		cfg.RoundSteps = def.RoundSteps
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the generator's notion of "now". Used by callers that
// need reproducible windows.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	if clock != nil {
		g.now = clock
	}
	return g
}

// Generate synthesises the full dataset. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users, err := g.GenerateUsers(ctx)
	if err != nil {
		return Dataset{}, err
	}
	devices, err := g.GenerateDevices(ctx, users)
	if err != nil {
		return Dataset{}, err
	}
	merchants, err := g.GenerateMerchants(ctx)
	if err != nil {
		return Dataset{}, err
	}
	txs, err := g.GenerateTransactions(ctx, users, devices, merchants)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Users: users, Devices: devices, Merchants: merchants, Transactions: txs}, nil
}

// GenerateUsers samples the user population. Registration dates fall
// uniformly within the three years preceding the clock.
func (g *Generator) GenerateUsers(ctx context.Context) ([]domain.User, error) {
	now := g.now()
	earliest := now.AddDate(-3, 0, 0)

	users := make([]domain.User, g.cfg.NumUsers)
	for i := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		users[i] = domain.User{
			ID:               newID(g.rand),
			RegistrationDate: dateBetween(g.rand, earliest, now),
			HomeCountry:      countryCodes[g.rand.Intn(len(countryCodes))],
			RiskSegment:      g.pickSegment(),
		}
	}
	return users, nil
}

// GenerateDevices assigns each user 1..n devices via the configured weighted
// choice, each with a first-seen date between the user's registration and now.
func (g *Generator) GenerateDevices(ctx context.Context, users []domain.User) ([]domain.Device, error) {
	now := g.now()

	var devices []domain.Device
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		count := 1 + pickWeighted(g.rand, g.cfg.DeviceCountWeights)
		for i := 0; i < count; i++ {
			devices = append(devices, domain.Device{
				ID:        newID(g.rand),
				UserID:    u.ID,
				Type:      g.pickDeviceType(),
				FirstSeen: dateBetween(g.rand, u.RegistrationDate, now),
			})
		}
	}
	return devices, nil
}

// GenerateMerchants samples the merchant population from the configured
// categorical distribution.
func (g *Generator) GenerateMerchants(ctx context.Context) ([]domain.Merchant, error) {
	weights := make([]float64, 0, len(domain.Categories()))
	cats := domain.Categories()
	for _, cat := range cats {
		weights = append(weights, g.cfg.CategoryWeights[cat])
	}

	merchants := make([]domain.Merchant, g.cfg.NumMerchants)
	for i := range merchants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merchants[i] = domain.Merchant{
			ID:       newID(g.rand),
			Category: cats[pickWeighted(g.rand, weights)],
		}
	}
	return merchants, nil
}

func (g *Generator) pickSegment() domain.RiskSegment {
	segments := []domain.RiskSegment{domain.SegmentLow, domain.SegmentMedium, domain.SegmentHigh}
	weights := make([]float64, len(segments))
	for i, s := range segments {
		weights[i] = g.cfg.SegmentWeights[s]
	}
	return segments[pickWeighted(g.rand, weights)]
}

func (g *Generator) pickDeviceType() domain.DeviceType {
	types := []domain.DeviceType{domain.DeviceMobile, domain.DeviceWeb}
	weights := []float64{g.cfg.DeviceTypeWeights[domain.DeviceMobile], g.cfg.DeviceTypeWeights[domain.DeviceWeb]}
	return types[pickWeighted(g.rand, weights)]
}

// pickWeighted returns an index into weights drawn proportionally to the
// weight values. Weights need not be normalized.
func pickWeighted(r *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	target := r.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// newID draws a UUID from the seeded source, keeping identifiers
// reproducible for a fixed seed.
func newID(r *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		// math/rand readers do not fail; guard against a misused source.
		panic(fmt.Sprintf("generator: uuid from seeded source: %v", err))
	}
	return id.String()
}

// dateBetween returns a uniformly sampled calendar date (midnight UTC) in
// [start, end].
func dateBetween(r *rand.Rand, start, end time.Time) time.Time {
	start = truncateToDay(start)
	end = truncateToDay(end)
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, r.Intn(days+1))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// countryCodes is the ISO-3166-1 alpha-2 pool home and transaction countries
// are drawn from.
var countryCodes = []string{
	"US", "GB", "DE", "FR", "ES", "IT", "NL", "SE", "NO", "FI",
	"PL", "CZ", "PT", "GR", "TR", "RU", "UA", "KZ", "KG", "UZ",
	"CN", "JP", "KR", "IN", "ID", "TH", "MY", "SG", "PH", "VN",
	"BD", "PK", "AE", "SA", "IL", "EG", "NG", "GH", "KE", "ZA",
	"MA", "BR", "AR", "CL", "CO", "MX", "PE", "CA", "AU", "NZ",
}
