// Package labeling implements the temporal fraud-labeling engine. It replays
// a batch of transactions in global timestamp order, maintains rolling
// per-user state, and assigns each transaction a deterministic score and an
// ordered list of reason codes from a fixed rule table.
package labeling

import (
	"time"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// Reason codes attached to labeled transactions. The codes are part of the
// output contract; downstream consumers key on them.
const (
	ReasonNightTime       = "night_time_transaction"
	ReasonHighRiskCountry = "high_risk_country"
	ReasonHighVelocity    = "high_tx_velocity_1h"
	ReasonNewDevice       = "new_device"
	ReasonRiskyMerchant   = "risky_merchant_category"
	ReasonForeignCountry  = "foreign_country_transaction"
	ReasonVeryNewUser     = "very_new_user"
	ReasonNewUser         = "new_user"

	reasonSegmentPrefix = "risk_segment_"
)

// Context carries everything the rules may inspect for a single transaction.
// The engine assembles it from the transaction, the owning user's metadata,
// and the rolling state accumulated so far.
type Context struct {
	Timestamp        time.Time
	Country          string
	MerchantCategory domain.Category
	TxCountLastHour  int
	IsNewDevice      bool
	HomeCountry      string
	RegistrationDate time.Time
	RiskSegment      domain.RiskSegment
}

// Rule is one signal in the rule table. Eval returns the score delta and the
// reason code when the rule fires.
type Rule struct {
	Name string
	Eval func(Context) (delta float64, reason string, fired bool)
}

// RuleSet is the tunable configuration behind the rule table. Swapping the
// set swaps the scoring behaviour without touching the replay driver.
type RuleSet struct {
	// BaseScore seeds every transaction's score before rules apply.
	BaseScore float64
	// Threshold is the score at or above which a transaction is fraud.
	Threshold float64

	// NightFromHour/NightUntilHour bound the night window (inclusive);
	// the window wraps midnight.
	NightFromHour  int
	NightUntilHour int
	NightDelta     float64

	HighRiskCountries map[string]bool
	CountryDelta      float64

	// VelocityWindow and VelocityLimit define the trailing-window signal:
	// strictly more than VelocityLimit prior transactions inside the window
	// fires the rule.
	VelocityWindow time.Duration
	VelocityLimit  int
	VelocityDelta  float64

	NewDeviceDelta float64

	HighRiskCategories map[domain.Category]bool
	CategoryDelta      float64

	ForeignDelta float64

	// Account age bands in days; the bands are mutually exclusive.
	VeryNewUserDays  int
	VeryNewUserDelta float64
	NewUserDays      int
	NewUserDelta     float64

	// SegmentWeights adds a flat per-segment delta; the low segment carries
	// no weight and produces no reason code.
	SegmentWeights map[domain.RiskSegment]float64
}

// DefaultRuleSet returns the production rule table.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		BaseScore:      0.01,
		Threshold:      0.7,
		NightFromHour:  23,
		NightUntilHour: 5,
		NightDelta:     0.10,
		HighRiskCountries: map[string]bool{
			"NG": true, "GH": true, "PK": true, "BD": true, "VN": true,
		},
		CountryDelta:   0.15,
		VelocityWindow: time.Hour,
		VelocityLimit:  3,
		VelocityDelta:  0.25,
		NewDeviceDelta: 0.20,
		HighRiskCategories: map[domain.Category]bool{
			domain.CategoryGambling:      true,
			domain.CategorySubscriptions: true,
			domain.CategoryTravel:        true,
		},
		CategoryDelta:    0.10,
		ForeignDelta:     0.10,
		VeryNewUserDays:  7,
		VeryNewUserDelta: 0.15,
		NewUserDays:      30,
		NewUserDelta:     0.10,
		SegmentWeights: map[domain.RiskSegment]float64{
			domain.SegmentLow:    0.0,
			domain.SegmentMedium: 0.05,
			domain.SegmentHigh:   0.15,
		},
	}
}

// Rules materializes the ordered rule table. Evaluation order determines the
// order of reason codes in explanations; scoring itself is additive and
// order-independent.
func (rs RuleSet) Rules() []Rule {
	return []Rule{
		{
			Name: "night_time",
			Eval: func(ctx Context) (float64, string, bool) {
				hour := ctx.Timestamp.Hour()
				if hour >= rs.NightFromHour || hour <= rs.NightUntilHour {
					return rs.NightDelta, ReasonNightTime, true
				}
				return 0, "", false
			},
		},
		{
			Name: "high_risk_country",
			Eval: func(ctx Context) (float64, string, bool) {
				if rs.HighRiskCountries[ctx.Country] {
					return rs.CountryDelta, ReasonHighRiskCountry, true
				}
				return 0, "", false
			},
		},
		{
			Name: "velocity",
			Eval: func(ctx Context) (float64, string, bool) {
				if ctx.TxCountLastHour > rs.VelocityLimit {
					return rs.VelocityDelta, ReasonHighVelocity, true
				}
				return 0, "", false
			},
		},
		{
			Name: "new_device",
			Eval: func(ctx Context) (float64, string, bool) {
				if ctx.IsNewDevice {
					return rs.NewDeviceDelta, ReasonNewDevice, true
				}
				return 0, "", false
			},
		},
		{
			Name: "risky_merchant_category",
			Eval: func(ctx Context) (float64, string, bool) {
				if rs.HighRiskCategories[ctx.MerchantCategory] {
					return rs.CategoryDelta, ReasonRiskyMerchant, true
				}
				return 0, "", false
			},
		},
		{
			Name: "foreign_country",
			Eval: func(ctx Context) (float64, string, bool) {
				if ctx.HomeCountry != ctx.Country {
					return rs.ForeignDelta, ReasonForeignCountry, true
				}
				return 0, "", false
			},
		},
		{
			Name: "account_age",
			Eval: func(ctx Context) (float64, string, bool) {
				age := accountAgeDays(ctx.RegistrationDate, ctx.Timestamp)
				switch {
				case age < rs.VeryNewUserDays:
					return rs.VeryNewUserDelta, ReasonVeryNewUser, true
				case age < rs.NewUserDays:
					return rs.NewUserDelta, ReasonNewUser, true
				}
				return 0, "", false
			},
		},
		{
			Name: "risk_segment",
			Eval: func(ctx Context) (float64, string, bool) {
				if ctx.RiskSegment == domain.SegmentLow {
					return 0, "", false
				}
				return rs.SegmentWeights[ctx.RiskSegment], reasonSegmentPrefix + string(ctx.RiskSegment), true
			},
		},
	}
}

// Score runs the full rule table over a context. Deltas accumulate on the
// base score; the result is clamped to [0, 1] once at the end, not after
// each rule. Reasons come back in table order.
func (rs RuleSet) Score(ctx Context) (float64, []string) {
	score := rs.BaseScore
	var reasons []string

	for _, rule := range rs.Rules() {
		delta, reason, fired := rule.Eval(ctx)
		if !fired {
			continue
		}
		score += delta
		reasons = append(reasons, reason)
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, reasons
}

// accountAgeDays returns whole days between the registration date and the
// transaction's calendar date.
func accountAgeDays(registration, ts time.Time) int {
	reg := toDate(registration)
	day := toDate(ts)
	return int(day.Sub(reg).Hours() / 24)
}

func toDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
