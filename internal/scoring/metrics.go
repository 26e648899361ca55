// Package scoring holds the swing metric set, the weight table, and the pure
// score transforms (normalization and adjustment application). Nothing in this
// package blocks or touches storage.
package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Metric is one of the closed set of swing evaluation axes.
type Metric string

const (
	MetricConfidence       Metric = "confidence"
	MetricFocus            Metric = "focus"
	MetricStiffness        Metric = "stiffness"
	MetricStance           Metric = "stance"
	MetricGrip             Metric = "grip"
	MetricBallPosition     Metric = "ballPosition"
	MetricBackswing        Metric = "backswing"
	MetricSwingForward     Metric = "swingForward"
	MetricSwingSpeed       Metric = "swingSpeed"
	MetricShallowing       Metric = "shallowing"
	MetricImpactPosition   Metric = "impactPosition"
	MetricHipRotation      Metric = "hipRotation"
	MetricPacing           Metric = "pacing"
	MetricFollowThrough    Metric = "followThrough"
	MetricHeadPosition     Metric = "headPosition"
	MetricShoulderPosition Metric = "shoulderPosition"
	MetricArmPosition      Metric = "armPosition"
)

// aliasSwingBack is a historical alias accepted on input.
const aliasSwingBack = "swingBack"

type Category string

const (
	CategorySetup  Category = "setup"
	CategorySwing  Category = "swing"
	CategoryBody   Category = "body"
	CategoryMental Category = "mental"
)

// DefaultWeight is assigned to metric keys outside the closed set.
const DefaultWeight = 0.05

// AllMetrics returns the closed set in a stable order.
func AllMetrics() []Metric {
	return []Metric{
		MetricConfidence, MetricFocus, MetricStiffness,
		MetricStance, MetricGrip, MetricBallPosition,
		MetricBackswing, MetricSwingForward, MetricSwingSpeed,
		MetricShallowing, MetricImpactPosition, MetricHipRotation,
		MetricPacing, MetricFollowThrough, MetricHeadPosition,
		MetricShoulderPosition, MetricArmPosition,
	}
}

var metricCategories = map[Metric]Category{
	MetricStance:       CategorySetup,
	MetricGrip:         CategorySetup,
	MetricBallPosition: CategorySetup,

	MetricBackswing:      CategorySwing,
	MetricSwingForward:   CategorySwing,
	MetricSwingSpeed:     CategorySwing,
	MetricShallowing:     CategorySwing,
	MetricImpactPosition: CategorySwing,
	MetricFollowThrough:  CategorySwing,

	MetricStiffness:        CategoryBody,
	MetricHipRotation:      CategoryBody,
	MetricHeadPosition:     CategoryBody,
	MetricShoulderPosition: CategoryBody,
	MetricArmPosition:      CategoryBody,

	MetricConfidence: CategoryMental,
	MetricFocus:      CategoryMental,
	MetricPacing:     CategoryMental,
}

// CategoryOf reports the conceptual group of a closed-set metric.
func CategoryOf(m Metric) (Category, bool) {
	c, ok := metricCategories[m]
	return c, ok
}

// Canonical maps a raw metric key to its closed-set form, resolving the
// swingBack alias. ok is false for keys outside the closed set.
func Canonical(key string) (Metric, bool) {
	if key == aliasSwingBack {
		return MetricBackswing, true
	}
	m := Metric(key)
	_, ok := metricCategories[m]
	return m, ok
}

// WeightTable maps metrics to their share of the overall score.
type WeightTable map[Metric]float64

// DefaultWeights returns the frozen production table. swingForward, shallowing
// and impactPosition carry double the 0.05 baseline; backswing carries 0.10.
func DefaultWeights() WeightTable {
	return WeightTable{
		MetricStance:       0.07,
		MetricGrip:         0.07,
		MetricBallPosition: 0.06,

		MetricBackswing:      0.10,
		MetricSwingForward:   0.10,
		MetricShallowing:     0.10,
		MetricImpactPosition: 0.10,
		MetricSwingSpeed:     0.05,
		MetricFollowThrough:  0.05,

		MetricHipRotation:      0.05,
		MetricStiffness:        0.04,
		MetricHeadPosition:     0.04,
		MetricShoulderPosition: 0.04,
		MetricArmPosition:      0.03,

		MetricConfidence: 0.04,
		MetricFocus:      0.03,
		MetricPacing:     0.03,
	}
}

// Of returns the weight for m, falling back to DefaultWeight for unknown keys.
func (w WeightTable) Of(m Metric) float64 {
	if v, ok := w[m]; ok {
		return v
	}
	return DefaultWeight
}

func (w WeightTable) Sum() float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// Validate checks the table sums to 1.0 within tolerance and has no negative
// entries.
func (w WeightTable) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.01 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for m, v := range w {
		if v < 0 {
			return fmt.Errorf("negative weight for %s: %f", m, v)
		}
	}
	return nil
}

// WeightedOverall computes the weight-normalized mean of metrics, rounded.
// Unknown keys participate at the default weight. Raising any single metric
// never lowers the result.
func (w WeightTable) WeightedOverall(metrics map[Metric]int) int {
	if len(metrics) == 0 {
		return 0
	}
	keys := make([]Metric, 0, len(metrics))
	for m := range metrics {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var num, den float64
	for _, m := range keys {
		wt := w.Of(m)
		num += float64(metrics[m]) * wt
		den += wt
	}
	if den == 0 {
		return 0
	}
	return int(math.Round(num / den))
}
