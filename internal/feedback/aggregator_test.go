package feedback

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

type fakeLedger struct {
	events []*domain.FeedbackEvent
}

func (f *fakeLedger) ListSince(_ context.Context, _ *gorm.DB, since time.Time) ([]*domain.FeedbackEvent, error) {
	var out []*domain.FeedbackEvent
	for _, e := range f.events {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeStore struct {
	factors      scoring.AdjustmentFactors
	last         time.Time
	replaceCalls int
}

func (f *fakeStore) AdjustmentFactors(context.Context, *gorm.DB) (scoring.AdjustmentFactors, error) {
	return f.factors, nil
}

func (f *fakeStore) ReplaceAdjustmentFactors(_ context.Context, _ *gorm.DB, factors scoring.AdjustmentFactors) error {
	f.factors = factors
	f.replaceCalls++
	return nil
}

func (f *fakeStore) LastProcessedAt(context.Context, *gorm.DB) (time.Time, error) {
	return f.last, nil
}

func (f *fakeStore) SetLastProcessedAt(_ context.Context, _ *gorm.DB, at time.Time) error {
	f.last = at
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func event(verdict domain.Verdict, confidence int, skill string) *domain.FeedbackEvent {
	return &domain.FeedbackEvent{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
		Verdict:    verdict,
		Confidence: confidence,
		SkillLevel: skill,
	}
}

func newTestAggregator(t *testing.T, ledger *fakeLedger, store *fakeStore) *Aggregator {
	t.Helper()
	return NewAggregator(ledger, store, testLogger(t), DefaultConfig())
}

func TestAggregatorOverwhelminglyTooHigh(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 8; i++ {
		ledger.events = append(ledger.events, event(domain.VerdictTooHigh, 4, "amateur"))
	}
	for i := 0; i < 2; i++ {
		ledger.events = append(ledger.events, event(domain.VerdictAccurate, 4, "amateur"))
	}
	store := &fakeStore{}

	factors, err := newTestAggregator(t, ledger, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// hp = 0.8: -round(3 * min(1, 2*0.3)) = -2
	if factors.Overall != -2 {
		t.Fatalf("global overall = %d, want -2", factors.Overall)
	}
	amateur, ok := factors.BySkillLevel[scoring.SkillAmateur]
	if !ok {
		t.Fatalf("amateur slice missing")
	}
	if amateur.Overall != factors.Overall {
		t.Fatalf("amateur overall %d differs from global %d", amateur.Overall, factors.Overall)
	}
	if store.replaceCalls != 1 {
		t.Fatalf("replace called %d times, want 1", store.replaceCalls)
	}
	if store.last.IsZero() {
		t.Fatalf("lastProcessedAt not recorded")
	}
}

func TestAggregatorNeverPriorityExcluded(t *testing.T) {
	never := domain.AdjustmentPriorityNever
	ledger := &fakeLedger{}
	for i := 0; i < 10; i++ {
		e := event(domain.VerdictTooHigh, 5, "beginner")
		e.AdjustmentPriority = &never
		ledger.events = append(ledger.events, e)
	}
	store := &fakeStore{}

	factors, err := newTestAggregator(t, ledger, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if factors.Overall != 0 || len(factors.Metrics) != 0 || len(factors.BySkillLevel) != 0 {
		t.Fatalf("excluded events changed factors: %+v", factors)
	}
}

func TestAggregatorIdempotentOverUnchangedWindow(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 6; i++ {
		e := event(domain.VerdictTooLow, 3, "advanced")
		e.MetricVerdicts = datatypes.NewJSONType(map[string]domain.Verdict{
			"grip": domain.VerdictTooLow, "stance": domain.VerdictAccurate,
		})
		ledger.events = append(ledger.events, e)
	}
	store := &fakeStore{}
	agg := newTestAggregator(t, ledger, store)
	frozen := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return frozen }

	first, err := agg.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := agg.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregatorBoundsFactors(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 40; i++ {
		e := event(domain.VerdictTooLow, 5, "beginner")
		e.MetricVerdicts = datatypes.NewJSONType(map[string]domain.Verdict{
			"grip": domain.VerdictTooLow,
		})
		ledger.events = append(ledger.events, e)
	}
	store := &fakeStore{}

	factors, err := newTestAggregator(t, ledger, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if factors.Overall > scoring.MaxOverallAdjustment || factors.Overall < -scoring.MaxOverallAdjustment {
		t.Fatalf("overall %d outside bounds", factors.Overall)
	}
	for m, f := range factors.Metrics {
		if f > scoring.MaxMetricAdjustment || f < -scoring.MaxMetricAdjustment {
			t.Fatalf("metric %s factor %d outside bounds", m, f)
		}
	}
	for skill, slice := range factors.BySkillLevel {
		for m, f := range slice.Metrics {
			if f > scoring.MaxMetricAdjustment || f < -scoring.MaxMetricAdjustment {
				t.Fatalf("%s metric %s factor %d outside bounds", skill, m, f)
			}
		}
	}
	// Unanimous too_low saturates at the per-slice maxima.
	if factors.Overall != maxGlobalOverall {
		t.Fatalf("overall = %d, want saturated %d", factors.Overall, maxGlobalOverall)
	}
	if got := factors.BySkillLevel[scoring.SkillBeginner].Metrics[scoring.MetricGrip]; got != maxMetricLowSkill {
		t.Fatalf("beginner grip = %d, want saturated %d", got, maxMetricLowSkill)
	}
}

func TestAggregatorProSliceDamped(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 10; i++ {
		e := event(domain.VerdictTooHigh, 5, "pro")
		e.IsProSwing = true
		ledger.events = append(ledger.events, e)
	}
	store := &fakeStore{}

	factors, err := newTestAggregator(t, ledger, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	pro, ok := factors.BySkillLevel[scoring.SkillPro]
	if !ok {
		t.Fatalf("pro slice missing")
	}
	if pro.Overall != -maxProSlice {
		t.Fatalf("pro overall = %d, want damped -%d", pro.Overall, maxProSlice)
	}
}

func TestAggregatorAbortsOnExcessiveSkips(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 8; i++ {
		ledger.events = append(ledger.events, event(domain.VerdictTooHigh, 4, "amateur"))
	}
	for i := 0; i < 2; i++ {
		// Invalid confidence forces a per-event skip.
		ledger.events = append(ledger.events, event(domain.VerdictTooHigh, 9, "amateur"))
	}
	store := &fakeStore{}

	if _, err := newTestAggregator(t, ledger, store).Run(context.Background()); err == nil {
		t.Fatalf("run with 20%% skipped events did not abort")
	}
	if store.replaceCalls != 0 {
		t.Fatalf("aborted run replaced the factors")
	}
}

func TestAggregatorBelowMinimumTotals(t *testing.T) {
	ledger := &fakeLedger{
		events: []*domain.FeedbackEvent{event(domain.VerdictTooHigh, 1, "advanced")},
	}
	store := &fakeStore{}

	factors, err := newTestAggregator(t, ledger, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if factors.Overall != 0 {
		t.Fatalf("one low-confidence event moved the overall: %d", factors.Overall)
	}
}
