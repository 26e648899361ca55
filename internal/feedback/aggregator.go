// Package feedback turns accumulated user feedback into the bounded
// adjustment factors applied to future scores.
package feedback

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// Ledger is the slice of the feedback repo the aggregator reads.
type Ledger interface {
	ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*domain.FeedbackEvent, error)
}

// FactorStore persists the aggregation output. The scheduler and aggregator
// are its only writers.
type FactorStore interface {
	AdjustmentFactors(ctx context.Context, tx *gorm.DB) (scoring.AdjustmentFactors, error)
	ReplaceAdjustmentFactors(ctx context.Context, tx *gorm.DB, factors scoring.AdjustmentFactors) error
	LastProcessedAt(ctx context.Context, tx *gorm.DB) (time.Time, error)
	SetLastProcessedAt(ctx context.Context, tx *gorm.DB, at time.Time) error
}

// Minimum weighted totals before a slice may emit a factor.
const (
	minTotalGlobal      = 5
	minTotalSkill       = 3
	minTotalMetric      = 3
	minTotalMetricSkill = 2
)

// Maximum factor magnitudes per slice kind. Pro slices get the smallest so a
// small, opinionated population cannot dominate corrections.
const (
	maxGlobalOverall  = 3
	maxMetric         = 4
	maxMetricLowSkill = 5
	maxProSlice       = 2
)

const skillBoostLow = 1.2

// maxSkipFraction aborts a run that had to drop too many events.
const maxSkipFraction = 0.10

type Config struct {
	Window time.Duration
}

func DefaultConfig() Config {
	return Config{Window: 14 * 24 * time.Hour}
}

type Aggregator struct {
	ledger Ledger
	store  FactorStore
	log    *logger.Logger
	cfg    Config

	now func() time.Time
}

func NewAggregator(ledger Ledger, store FactorStore, baseLog *logger.Logger, cfg Config) *Aggregator {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	return &Aggregator{
		ledger: ledger,
		store:  store,
		log:    baseLog.With("service", "FeedbackAggregator"),
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type counter struct {
	tooHigh  float64
	tooLow   float64
	accurate float64
	total    float64
}

func (c *counter) add(v domain.Verdict, w float64) {
	switch v {
	case domain.VerdictTooHigh:
		c.tooHigh += w
	case domain.VerdictAccurate:
		c.accurate += w
	default:
		// form_issue, pacing_issue and not_helpful collapse into too_low
		// for aggregation.
		c.tooLow += w
	}
	c.total += w
}

type tally struct {
	global         counter
	perSkill       map[scoring.SkillLevel]*counter
	perMetric      map[scoring.Metric]*counter
	perMetricSkill map[scoring.SkillLevel]map[scoring.Metric]*counter
}

func newTally() *tally {
	return &tally{
		perSkill:       map[scoring.SkillLevel]*counter{},
		perMetric:      map[scoring.Metric]*counter{},
		perMetricSkill: map[scoring.SkillLevel]map[scoring.Metric]*counter{},
	}
}

// Run reads the recent ledger window, reduces it, and atomically replaces the
// adjustment factors. Per-event problems are logged and skipped; the run
// aborts without writing when more than 10% of the window had to be skipped.
// Running twice over an unchanged window produces identical factors.
func (a *Aggregator) Run(ctx context.Context) (scoring.AdjustmentFactors, error) {
	now := a.now()
	since := now.Add(-a.cfg.Window)

	events, err := a.ledger.ListSince(ctx, nil, since)
	if err != nil {
		return scoring.ZeroFactors(), fmt.Errorf("read feedback window: %w", err)
	}

	t := newTally()
	considered, skipped := 0, 0
	for _, e := range events {
		if e.AdjustmentPriority != nil && *e.AdjustmentPriority == domain.AdjustmentPriorityNever {
			continue
		}
		considered++
		if err := e.Validate(); err != nil {
			skipped++
			a.log.Warn("skipping feedback event", "event_id", e.ID, "error", err)
			continue
		}
		a.reduce(t, e)
	}
	if considered > 0 && float64(skipped)/float64(considered) > maxSkipFraction {
		return scoring.ZeroFactors(), fmt.Errorf("aborting: %d of %d window events skipped", skipped, considered)
	}

	factors := derive(t, now)

	if err := a.store.ReplaceAdjustmentFactors(ctx, nil, factors); err != nil {
		return scoring.ZeroFactors(), fmt.Errorf("replace adjustment factors: %w", err)
	}
	if err := a.store.SetLastProcessedAt(ctx, nil, now); err != nil {
		return scoring.ZeroFactors(), fmt.Errorf("record processing watermark: %w", err)
	}
	a.log.Info("feedback aggregation complete",
		"window_events", len(events),
		"skipped", skipped,
		"overall_factor", factors.Overall,
	)
	return factors, nil
}

func (a *Aggregator) reduce(t *tally, e *domain.FeedbackEvent) {
	skill, _ := scoring.ParseSkillLevel(e.SkillLevel)
	w := float64(e.Confidence) * skillBoost(skill)

	t.global.add(e.Verdict, w)

	if _, ok := t.perSkill[skill]; !ok {
		t.perSkill[skill] = &counter{}
	}
	t.perSkill[skill].add(e.Verdict, w)

	for key, verdict := range e.MetricVerdicts.Data() {
		metric, ok := scoring.Canonical(key)
		if !ok {
			continue
		}
		if _, ok := t.perMetric[metric]; !ok {
			t.perMetric[metric] = &counter{}
		}
		t.perMetric[metric].add(verdict, w)

		if _, ok := t.perMetricSkill[skill]; !ok {
			t.perMetricSkill[skill] = map[scoring.Metric]*counter{}
		}
		if _, ok := t.perMetricSkill[skill][metric]; !ok {
			t.perMetricSkill[skill][metric] = &counter{}
		}
		t.perMetricSkill[skill][metric].add(verdict, w)
	}
}

func skillBoost(skill scoring.SkillLevel) float64 {
	if skill == scoring.SkillAmateur || skill == scoring.SkillBeginner {
		return skillBoostLow
	}
	return 1.0
}

func derive(t *tally, now time.Time) scoring.AdjustmentFactors {
	factors := scoring.ZeroFactors()
	factors.UpdatedAt = now

	factors.Overall = factorOf(t.global, minTotalGlobal, maxGlobalOverall)

	for metric, c := range t.perMetric {
		if f := factorOf(*c, minTotalMetric, maxMetric); f != 0 {
			factors.Metrics[metric] = f
		}
	}

	for skill, c := range t.perSkill {
		slice := scoring.FactorSet{Metrics: map[scoring.Metric]int{}}
		slice.Overall = factorOf(*c, minTotalSkill, overallMagnitude(skill))
		for metric, mc := range t.perMetricSkill[skill] {
			if f := factorOf(*mc, minTotalMetricSkill, metricMagnitude(skill)); f != 0 {
				slice.Metrics[metric] = f
			}
		}
		if slice.Overall != 0 || len(slice.Metrics) > 0 {
			if factors.BySkillLevel == nil {
				factors.BySkillLevel = map[scoring.SkillLevel]scoring.FactorSet{}
			}
			factors.BySkillLevel[skill] = slice
		}
	}
	return factors
}

func overallMagnitude(skill scoring.SkillLevel) float64 {
	if skill == scoring.SkillPro {
		return maxProSlice
	}
	return maxGlobalOverall
}

func metricMagnitude(skill scoring.SkillLevel) float64 {
	switch skill {
	case scoring.SkillPro:
		return maxProSlice
	case scoring.SkillAmateur, scoring.SkillBeginner:
		return maxMetricLowSkill
	default:
		return maxMetric
	}
}

// factorOf derives one slice's correction. A slice under its minimum total, or
// without a clear lean between too-high and too-low, emits nothing.
func factorOf(c counter, minTotal, magnitude float64) int {
	if c.total < minTotal {
		return 0
	}
	hp := c.tooHigh / c.total
	lp := c.tooLow / c.total
	switch {
	case math.Abs(hp-lp) < 0.2:
		return 0
	case hp > 0.5 && hp > 1.5*lp:
		return -int(math.Round(magnitude * math.Min(1, 2*(hp-0.5))))
	case lp > 0.5 && lp > 1.5*hp:
		return int(math.Round(magnitude * math.Min(1, 2*(lp-0.5))))
	default:
		return 0
	}
}
