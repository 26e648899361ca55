// Package analytics derives accuracy trends from the feedback ledger on
// demand. Nothing here is persisted.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// Range is a supported lookback window.
type Range string

const (
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
	RangeYear  Range = "1y"
)

// ParseRange maps the query-string form to a duration.
func ParseRange(s string) (time.Duration, error) {
	switch Range(s) {
	case RangeWeek:
		return 7 * 24 * time.Hour, nil
	case RangeMonth:
		return 30 * 24 * time.Hour, nil
	case RangeYear, "":
		return 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported range %q", s)
	}
}

// Trend values for the bin series.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendNeutral   = "neutral"
	TrendStable    = "stable"
)

// minMetricTotal hides per-metric rates built on too few judgments.
const minMetricTotal = 3

// Bin is one quarter-year bucket of accuracy counts.
type Bin struct {
	Quarter      string  `json:"quarter"`
	Accurate     int     `json:"accurate"`
	Inaccurate   int     `json:"inaccurate"`
	Total        int     `json:"total"`
	AccuracyRate float64 `json:"accuracyRate"`
}

// MetricAccuracy is one metric's rate over the whole range.
type MetricAccuracy struct {
	Metric       scoring.Metric `json:"metric"`
	Accurate     int            `json:"accurate"`
	Total        int            `json:"total"`
	AccuracyRate float64        `json:"accuracyRate"`
}

// Report is the full on-demand view for one range.
type Report struct {
	Range     string           `json:"range"`
	Bins      []Bin            `json:"bins"`
	PerMetric []MetricAccuracy `json:"perMetric"`
	Trend     string           `json:"trend"`
}

// Ledger is the slice of the feedback repo the view reads.
type Ledger interface {
	ListBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*domain.FeedbackEvent, error)
}

type View struct {
	ledger Ledger
	log    *logger.Logger

	now func() time.Time
}

func NewView(ledger Ledger, baseLog *logger.Logger) *View {
	return &View{
		ledger: ledger,
		log:    baseLog.With("service", "AnalyticsView"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Accuracy scans the ledger over the requested range and buckets verdicts into
// quarter-year bins. inaccurate counts too_high and too_low; the remaining
// verdicts describe the feedback itself rather than score accuracy and are
// excluded from the totals.
func (v *View) Accuracy(ctx context.Context, rangeSpec string) (*Report, error) {
	window, err := ParseRange(rangeSpec)
	if err != nil {
		return nil, err
	}
	now := v.now()

	events, err := v.ledger.ListBetween(ctx, nil, now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("scan feedback ledger: %w", err)
	}

	type counts struct{ accurate, inaccurate int }
	byQuarter := map[string]*counts{}
	byMetric := map[scoring.Metric]*counts{}

	for _, e := range events {
		acc, inacc, ok := classify(e.Verdict)
		if ok {
			q := QuarterTag(e.CreatedAt)
			if byQuarter[q] == nil {
				byQuarter[q] = &counts{}
			}
			byQuarter[q].accurate += acc
			byQuarter[q].inaccurate += inacc
		}
		for key, verdict := range e.MetricVerdicts.Data() {
			metric, known := scoring.Canonical(key)
			if !known {
				continue
			}
			acc, inacc, ok := classify(verdict)
			if !ok {
				continue
			}
			if byMetric[metric] == nil {
				byMetric[metric] = &counts{}
			}
			byMetric[metric].accurate += acc
			byMetric[metric].inaccurate += inacc
		}
	}

	report := &Report{Range: rangeSpec}
	for q, c := range byQuarter {
		total := c.accurate + c.inaccurate
		report.Bins = append(report.Bins, Bin{
			Quarter:      q,
			Accurate:     c.accurate,
			Inaccurate:   c.inaccurate,
			Total:        total,
			AccuracyRate: rate(c.accurate, total),
		})
	}
	sort.Slice(report.Bins, func(i, j int) bool { return report.Bins[i].Quarter < report.Bins[j].Quarter })

	for metric, c := range byMetric {
		total := c.accurate + c.inaccurate
		if total < minMetricTotal {
			continue
		}
		report.PerMetric = append(report.PerMetric, MetricAccuracy{
			Metric:       metric,
			Accurate:     c.accurate,
			Total:        total,
			AccuracyRate: rate(c.accurate, total),
		})
	}
	sort.Slice(report.PerMetric, func(i, j int) bool { return report.PerMetric[i].Metric < report.PerMetric[j].Metric })

	report.Trend = trendOf(report.Bins)
	return report, nil
}

func classify(verdict domain.Verdict) (accurate, inaccurate int, ok bool) {
	switch verdict {
	case domain.VerdictAccurate:
		return 1, 0, true
	case domain.VerdictTooHigh, domain.VerdictTooLow:
		return 0, 1, true
	default:
		return 0, 0, false
	}
}

// QuarterTag renders a timestamp's quarter-year bin, e.g. "2026-Q1".
func QuarterTag(at time.Time) string {
	return fmt.Sprintf("%d-Q%d", at.Year(), (int(at.Month())-1)/3+1)
}

func rate(accurate, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(accurate)/float64(total)*1000) / 10
}

// trendOf compares the last bin's rate to the first: a change above 5 points
// is improving, below -5 declining. With more than two bins a small change
// reads stable rather than neutral.
func trendOf(bins []Bin) string {
	if len(bins) < 2 {
		return TrendNeutral
	}
	delta := bins[len(bins)-1].AccuracyRate - bins[0].AccuracyRate
	switch {
	case delta > 5:
		return TrendImproving
	case delta < -5:
		return TrendDeclining
	case len(bins) > 2:
		return TrendStable
	default:
		return TrendNeutral
	}
}
