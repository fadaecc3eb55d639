package labeling

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkulenov/fraudlab/internal/domain"
)

func testUser(id string) domain.User {
	return domain.User{
		ID:               id,
		RegistrationDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), // 40 days before the test transactions
		HomeCountry:      "US",
		RiskSegment:      domain.SegmentLow,
	}
}

func testTx(id, userID, deviceID, country string, category domain.Category, ts time.Time) domain.Transaction {
	return domain.Transaction{
		ID:               id,
		UserID:           userID,
		Amount:           decimal.NewFromInt(100),
		Currency:         domain.CurrencyUSD,
		MerchantID:       "m-1",
		MerchantCategory: category,
		Country:          country,
		DeviceID:         deviceID,
		Timestamp:        ts,
	}
}

func findByID(t *testing.T, labeled []domain.LabeledTransaction, id string) domain.LabeledTransaction {
	t.Helper()
	for _, tx := range labeled {
		if tx.ID == id {
			return tx
		}
	}
	t.Fatalf("transaction %s not found in labeled output", id)
	return domain.LabeledTransaction{}
}

func TestEngine_HighRiskScenario(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 2, 0, 0, 0, time.UTC)

	txs := []domain.Transaction{
		testTx("prior-1", user.ID, "dev-known", "US", domain.CategoryFood, at.Add(-50*time.Minute)),
		testTx("prior-2", user.ID, "dev-known", "US", domain.CategoryFood, at.Add(-40*time.Minute)),
		testTx("prior-3", user.ID, "dev-known", "US", domain.CategoryFood, at.Add(-30*time.Minute)),
		testTx("prior-4", user.ID, "dev-known", "US", domain.CategoryFood, at.Add(-20*time.Minute)),
		testTx("suspect", user.ID, "dev-fresh", "NG", domain.CategoryGambling, at),
	}

	labeled, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	suspect := findByID(t, labeled, "suspect")
	wantReasons := []string{
		ReasonNightTime,
		ReasonHighRiskCountry,
		ReasonHighVelocity,
		ReasonNewDevice,
		ReasonRiskyMerchant,
		ReasonForeignCountry,
	}
	if !reflect.DeepEqual(suspect.Reasons, wantReasons) {
		t.Errorf("reasons mismatch:\nwant %v\ngot  %v", wantReasons, suspect.Reasons)
	}
	if math.Abs(suspect.FraudScore-0.91) > 1e-9 {
		t.Errorf("expected score 0.91, got %v", suspect.FraudScore)
	}
	if !suspect.IsFraud {
		t.Error("expected suspect transaction to be flagged as fraud")
	}
}

func TestEngine_BenignScenario(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	morning := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

	txs := []domain.Transaction{
		testTx("earlier", user.ID, "dev-known", "US", domain.CategoryFood, morning),
		testTx("benign", user.ID, "dev-known", "US", domain.CategoryFood, afternoon),
	}

	labeled, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	benign := findByID(t, labeled, "benign")
	if len(benign.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", benign.Reasons)
	}
	if math.Abs(benign.FraudScore-0.01) > 1e-9 {
		t.Errorf("expected base score 0.01, got %v", benign.FraudScore)
	}
	if benign.IsFraud {
		t.Error("expected benign transaction not to be flagged")
	}
}

func TestEngine_FirstTransactionAlwaysNewDevice(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	labeled, err := engine.Label([]domain.Transaction{
		testTx("first", user.ID, "dev-1", "US", domain.CategoryFood, at),
	}, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	first := findByID(t, labeled, "first")
	if !containsReason(first.Reasons, ReasonNewDevice) {
		t.Errorf("expected first transaction to carry %s, got %v", ReasonNewDevice, first.Reasons)
	}
}

func TestEngine_VelocityExcludesSelfAndFuture(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	// Four transactions inside one hour: the velocity rule (>3 priors) must
	// fire only for a transaction with at least four earlier ones, since a
	// transaction never counts itself.
	txs := []domain.Transaction{
		testTx("t1", user.ID, "dev-1", "US", domain.CategoryFood, at),
		testTx("t2", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(5*time.Minute)),
		testTx("t3", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(10*time.Minute)),
		testTx("t4", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(15*time.Minute)),
		testTx("t5", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(20*time.Minute)),
	}

	labeled, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		if containsReason(findByID(t, labeled, id).Reasons, ReasonHighVelocity) {
			t.Errorf("velocity fired for %s with fewer than 4 priors", id)
		}
	}
	if !containsReason(findByID(t, labeled, "t5").Reasons, ReasonHighVelocity) {
		t.Error("velocity did not fire for the fifth transaction in the window")
	}
}

func TestEngine_DeviceStateIsCausal(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	// Present input in reverse order; the engine must still treat the
	// chronologically earlier transaction as the device's first sighting.
	txs := []domain.Transaction{
		testTx("later", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(2*time.Hour)),
		testTx("earlier", user.ID, "dev-1", "US", domain.CategoryFood, at),
	}

	labeled, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !containsReason(findByID(t, labeled, "earlier").Reasons, ReasonNewDevice) {
		t.Error("chronologically first transaction should see a new device")
	}
	if containsReason(findByID(t, labeled, "later").Reasons, ReasonNewDevice) {
		t.Error("chronologically later transaction should see a known device")
	}
}

func TestEngine_OutputSortedByTimestamp(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	txs := []domain.Transaction{
		testTx("c", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(2*time.Hour)),
		testTx("a", user.ID, "dev-1", "US", domain.CategoryFood, at),
		testTx("b", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(time.Hour)),
	}

	labeled, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for i := 1; i < len(labeled); i++ {
		if labeled[i].Timestamp.Before(labeled[i-1].Timestamp) {
			t.Fatalf("output not sorted at index %d", i)
		}
	}
	if labeled[0].ID != "a" || labeled[1].ID != "b" || labeled[2].ID != "c" {
		t.Errorf("unexpected output order: %s %s %s", labeled[0].ID, labeled[1].ID, labeled[2].ID)
	}
}

func TestEngine_InputOrderIndependence(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	txs := []domain.Transaction{
		testTx("t1", user.ID, "dev-1", "NG", domain.CategoryGambling, at),
		testTx("t2", user.ID, "dev-2", "US", domain.CategoryFood, at.Add(10*time.Minute)),
		testTx("t3", user.ID, "dev-1", "DE", domain.CategoryTravel, at.Add(20*time.Minute)),
		testTx("t4", user.ID, "dev-3", "US", domain.CategoryFood, at.Add(3*time.Hour)),
	}
	reversed := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}

	forward, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	backward, err := NewEngine(DefaultRuleSet()).Label(reversed, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(forward, backward) {
		t.Error("labeling is not independent of input ordering")
	}
}

func TestEngine_ScoreBoundsAndThreshold(t *testing.T) {
	rules := DefaultRuleSet()
	engine := NewEngine(rules)
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 2, 0, 0, 0, time.UTC)

	var txs []domain.Transaction
	for i := 0; i < 8; i++ {
		txs = append(txs, testTx(
			"t"+string(rune('a'+i)), user.ID, "dev-1", "NG", domain.CategoryGambling,
			at.Add(time.Duration(i)*5*time.Minute),
		))
	}

	labeled, err := engine.Label(txs, []domain.User{user})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, tx := range labeled {
		if tx.FraudScore < 0 || tx.FraudScore > 1 {
			t.Errorf("score %v out of [0,1] for %s", tx.FraudScore, tx.ID)
		}
		if tx.IsFraud != (tx.FraudScore >= rules.Threshold) {
			t.Errorf("is_fraud inconsistent with threshold for %s: score=%v fraud=%v",
				tx.ID, tx.FraudScore, tx.IsFraud)
		}
	}
}

func TestEngine_UnknownUserIsFatal(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	_, err := engine.Label([]domain.Transaction{
		testTx("t1", "ghost", "dev-1", "US", domain.CategoryFood, at),
	}, nil)
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestEngine_LabelOrderedRejectsUnsortedInput(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	user := testUser("u-1")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	_, err := engine.LabelOrdered([]domain.Transaction{
		testTx("t2", user.ID, "dev-1", "US", domain.CategoryFood, at.Add(time.Hour)),
		testTx("t1", user.ID, "dev-1", "US", domain.CategoryFood, at),
	}, []domain.User{user})
	if !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}
}

func TestEngine_StateDoesNotLeakAcrossUsers(t *testing.T) {
	engine := NewEngine(DefaultRuleSet())
	u1 := testUser("u-1")
	u2 := testUser("u-2")
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	txs := []domain.Transaction{
		testTx("u1-first", u1.ID, "dev-shared", "US", domain.CategoryFood, at),
		testTx("u2-first", u2.ID, "dev-shared", "US", domain.CategoryFood, at.Add(time.Minute)),
	}

	labeled, err := engine.Label(txs, []domain.User{u1, u2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The same device ID is still "new" for the second user.
	if !containsReason(findByID(t, labeled, "u2-first").Reasons, ReasonNewDevice) {
		t.Error("device-seen state leaked between users")
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
