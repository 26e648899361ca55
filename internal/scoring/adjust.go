package scoring

import (
	"hash/fnv"
	"time"
)

// Hard bounds on corrections, enforced here no matter what the aggregator
// wrote.
const (
	MaxOverallAdjustment = 3
	MaxMetricAdjustment  = 5
)

// FactorSet is one slice of additive corrections.
type FactorSet struct {
	Overall int            `json:"overall"`
	Metrics map[Metric]int `json:"metrics,omitempty"`
}

// AdjustmentFactors is the process-wide singleton of corrections derived from
// user feedback. Readers see either the old or the new document, never a
// partial merge.
type AdjustmentFactors struct {
	FactorSet
	BySkillLevel map[SkillLevel]FactorSet `json:"bySkillLevel,omitempty"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

// ZeroFactors returns a document that adjusts nothing.
func ZeroFactors() AdjustmentFactors {
	return AdjustmentFactors{FactorSet: FactorSet{Metrics: map[Metric]int{}}}
}

// Applier additively corrects fresh score vectors with the current factors.
type Applier struct {
	weights       WeightTable
	jitterEnabled bool
}

func NewApplier(w WeightTable, jitterEnabled bool) *Applier {
	return &Applier{weights: w, jitterEnabled: jitterEnabled}
}

// Apply corrects v with the slice for skill when one exists, otherwise the
// top-level factors. Per-metric deltas are clamped to ±5 and the overall delta
// to ±3 regardless of the stored document. When any metric moved, the overall
// is recomputed from the weight table; when nothing moved, a deterministic ±1
// jitter keyed on jitterSeed keeps re-analysis of the same swing from looking
// frozen. The adjusted flag reports whether any correction landed.
func (a *Applier) Apply(v ScoreVector, factors AdjustmentFactors, skill SkillLevel, jitterSeed string) (out ScoreVector, adjusted bool) {
	out = v.Clone()

	slice := factors.FactorSet
	if skill != "" {
		if s, ok := factors.BySkillLevel[skill]; ok {
			slice = s
		}
	}

	metricMoved := false
	for _, m := range sortedKeys(out.Metrics) {
		delta := clampDelta(slice.Metrics[m], MaxMetricAdjustment)
		if delta == 0 {
			continue
		}
		out.Metrics[m] = Clamp(out.Metrics[m] + delta)
		metricMoved = true
	}

	overallDelta := clampDelta(slice.Overall, MaxOverallAdjustment)
	if overallDelta != 0 {
		out.Overall = Clamp(out.Overall + overallDelta)
	}

	if metricMoved {
		out.Overall = a.weights.WeightedOverall(out.Metrics)
	}
	adjusted = metricMoved || overallDelta != 0

	if !adjusted && a.jitterEnabled {
		out.Overall = Clamp(out.Overall + jitter(jitterSeed))
	}
	return out, adjusted
}

func clampDelta(d, max int) int {
	if d > max {
		return max
	}
	if d < -max {
		return -max
	}
	return d
}

// jitter maps a seed to {-1, 0, +1}.
func jitter(seed string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int(h.Sum64()%3) - 1
}
