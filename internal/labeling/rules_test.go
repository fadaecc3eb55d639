package labeling

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// baseContext is a context that fires no rule against the default rule set.
func baseContext() Context {
	return Context{
		Timestamp:        time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC),
		Country:          "US",
		MerchantCategory: domain.CategoryFood,
		TxCountLastHour:  0,
		IsNewDevice:      false,
		HomeCountry:      "US",
		RegistrationDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		RiskSegment:      domain.SegmentLow,
	}
}

func TestRules_IndividualSignals(t *testing.T) {
	rules := DefaultRuleSet()

	tests := []struct {
		name       string
		mutate     func(*Context)
		wantDelta  float64
		wantReason string
	}{
		{
			name:       "night time late",
			mutate:     func(c *Context) { c.Timestamp = time.Date(2025, 5, 10, 23, 30, 0, 0, time.UTC) },
			wantDelta:  0.10,
			wantReason: ReasonNightTime,
		},
		{
			name:       "night time early morning",
			mutate:     func(c *Context) { c.Timestamp = time.Date(2025, 5, 10, 5, 59, 0, 0, time.UTC) },
			wantDelta:  0.10,
			wantReason: ReasonNightTime,
		},
		{
			name:       "high risk country",
			mutate:     func(c *Context) { c.Country = "PK"; c.HomeCountry = "PK" },
			wantDelta:  0.15,
			wantReason: ReasonHighRiskCountry,
		},
		{
			name:       "velocity above limit",
			mutate:     func(c *Context) { c.TxCountLastHour = 4 },
			wantDelta:  0.25,
			wantReason: ReasonHighVelocity,
		},
		{
			name:       "new device",
			mutate:     func(c *Context) { c.IsNewDevice = true },
			wantDelta:  0.20,
			wantReason: ReasonNewDevice,
		},
		{
			name:       "risky merchant category",
			mutate:     func(c *Context) { c.MerchantCategory = domain.CategoryGambling },
			wantDelta:  0.10,
			wantReason: ReasonRiskyMerchant,
		},
		{
			name:       "foreign country",
			mutate:     func(c *Context) { c.Country = "DE" },
			wantDelta:  0.10,
			wantReason: ReasonForeignCountry,
		},
		{
			name:       "very new user",
			mutate:     func(c *Context) { c.RegistrationDate = time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC) },
			wantDelta:  0.15,
			wantReason: ReasonVeryNewUser,
		},
		{
			name:       "new user",
			mutate:     func(c *Context) { c.RegistrationDate = time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC) },
			wantDelta:  0.10,
			wantReason: ReasonNewUser,
		},
		{
			name:       "medium risk segment",
			mutate:     func(c *Context) { c.RiskSegment = domain.SegmentMedium },
			wantDelta:  0.05,
			wantReason: "risk_segment_medium",
		},
		{
			name:       "high risk segment",
			mutate:     func(c *Context) { c.RiskSegment = domain.SegmentHigh },
			wantDelta:  0.15,
			wantReason: "risk_segment_high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := baseContext()
			tc.mutate(&ctx)

			score, reasons := rules.Score(ctx)
			want := rules.BaseScore + tc.wantDelta
			if math.Abs(score-want) > 1e-9 {
				t.Errorf("expected score %v, got %v", want, score)
			}
			if !reflect.DeepEqual(reasons, []string{tc.wantReason}) {
				t.Errorf("expected reasons [%s], got %v", tc.wantReason, reasons)
			}
		})
	}
}

func TestRules_QuietContextScoresBaseOnly(t *testing.T) {
	rules := DefaultRuleSet()
	score, reasons := rules.Score(baseContext())
	if math.Abs(score-rules.BaseScore) > 1e-9 {
		t.Errorf("expected base score %v, got %v", rules.BaseScore, score)
	}
	if len(reasons) != 0 {
		t.Errorf("expected no reasons, got %v", reasons)
	}
}

func TestRules_AgeBandsAreMutuallyExclusive(t *testing.T) {
	rules := DefaultRuleSet()

	ctx := baseContext()
	ctx.RegistrationDate = ctx.Timestamp.AddDate(0, 0, -10) // 10 days old

	_, reasons := rules.Score(ctx)
	if containsReason(reasons, ReasonVeryNewUser) {
		t.Error("very_new_user fired for a 10-day-old account")
	}
	if !containsReason(reasons, ReasonNewUser) {
		t.Error("new_user did not fire for a 10-day-old account")
	}
}

func TestRules_ScoreClampedToOne(t *testing.T) {
	rules := DefaultRuleSet()

	// Fire everything at once; raw accumulation exceeds 1 before clamping.
	ctx := Context{
		Timestamp:        time.Date(2025, 5, 10, 2, 0, 0, 0, time.UTC),
		Country:          "NG",
		MerchantCategory: domain.CategoryGambling,
		TxCountLastHour:  10,
		IsNewDevice:      true,
		HomeCountry:      "US",
		RegistrationDate: time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC),
		RiskSegment:      domain.SegmentHigh,
	}

	score, reasons := rules.Score(ctx)
	if score != 1.0 {
		t.Errorf("expected score clamped to 1.0, got %v", score)
	}
	if len(reasons) != 8 {
		t.Errorf("expected all 8 signals to fire, got %v", reasons)
	}
}

func TestRules_ReasonOrderMatchesTableOrder(t *testing.T) {
	rules := DefaultRuleSet()
	ctx := Context{
		Timestamp:        time.Date(2025, 5, 10, 2, 0, 0, 0, time.UTC),
		Country:          "NG",
		MerchantCategory: domain.CategoryGambling,
		TxCountLastHour:  4,
		IsNewDevice:      true,
		HomeCountry:      "US",
		RegistrationDate: time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC),
		RiskSegment:      domain.SegmentHigh,
	}

	_, reasons := rules.Score(ctx)
	want := []string{
		ReasonNightTime,
		ReasonHighRiskCountry,
		ReasonHighVelocity,
		ReasonNewDevice,
		ReasonRiskyMerchant,
		ReasonForeignCountry,
		ReasonVeryNewUser,
		"risk_segment_high",
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Errorf("reason order mismatch:\nwant %v\ngot  %v", want, reasons)
	}
}
