package scoring

import (
	"hash/fnv"
	"math"
	"sort"
)

// midpoint fills metrics the analyzer failed to score.
const midpoint = 50

// Normalizer makes raw analyzer vectors presentable: scores bounded, the
// overall consistent with the weight table, and per-metric variance visible.
// Normalize is pure.
type Normalizer struct {
	weights WeightTable
}

func NewNormalizer(w WeightTable) *Normalizer {
	return &Normalizer{weights: w}
}

// Normalize canonicalizes metric keys, clamps everything into [0,100], pins
// the overall to the weighted mean when it drifts more than 5 points, spreads
// degenerate variance, and breaks exact ties with the overall. The external
// analyzer tends to collapse toward the midpoint; the stretch keeps per-metric
// differences visible without moving the weighted mean beyond a bounded
// correction.
func (n *Normalizer) Normalize(v ScoreVector) ScoreVector {
	out := v.Clone()
	out.Metrics = canonicalizeKeys(out.Metrics)
	out.Defaulted = nil
	for _, m := range AllMetrics() {
		if _, ok := out.Metrics[m]; !ok {
			out.Metrics[m] = midpoint
			out.Defaulted = append(out.Defaulted, m)
		}
	}
	for m, s := range out.Metrics {
		out.Metrics[m] = Clamp(s)
	}
	out.Overall = Clamp(out.Overall)

	out.Overall = n.reconcileOverall(out.Overall, out.Metrics)

	if needsStretch(out.Metrics) {
		stretch(out.Metrics)
		out.Overall = n.reconcileOverall(out.Overall, out.Metrics)
	}

	nudgeTies(out.Metrics, out.Overall)
	return out
}

// reconcileOverall replaces overall with the weighted mean when they disagree
// by more than 5 points.
func (n *Normalizer) reconcileOverall(overall int, metrics map[Metric]int) int {
	weighted := n.weights.WeightedOverall(metrics)
	if abs(overall-weighted) > 5 {
		return weighted
	}
	return overall
}

func canonicalizeKeys(metrics map[Metric]int) map[Metric]int {
	out := make(map[Metric]int, len(metrics))
	for m, s := range metrics {
		if canon, ok := Canonical(string(m)); ok {
			out[canon] = s
			continue
		}
		out[m] = s
	}
	return out
}

func needsStretch(metrics map[Metric]int) bool {
	if len(metrics) < 4 {
		return false
	}
	lo, hi := minMax(metrics)
	return stddev(metrics) < 5 && hi-lo < 15
}

// stretch scales each metric away from the mean by 8/max(1,sigma), re-clamped.
func stretch(metrics map[Metric]int) {
	mean := meanOf(metrics)
	sigma := stddev(metrics)
	factor := 8 / math.Max(1, sigma)
	for _, m := range sortedKeys(metrics) {
		metrics[m] = clampRound(mean + (float64(metrics[m])-mean)*factor)
	}
}

// nudgeTies moves each metric that exactly equals the overall by one point so
// the display never shows a wall of identical numbers. A fully flat vector is
// a legitimate result and is left alone. Direction comes from the metric key
// hash so repeated runs agree.
func nudgeTies(metrics map[Metric]int, overall int) {
	allEqual := true
	for _, s := range metrics {
		if s != overall {
			allEqual = false
			break
		}
	}
	if allEqual {
		return
	}
	for _, m := range sortedKeys(metrics) {
		if metrics[m] != overall {
			continue
		}
		dir := nudgeDirection(m)
		next := Clamp(metrics[m] + dir)
		if next == metrics[m] {
			// No room at the boundary; go the other way.
			next = Clamp(metrics[m] - dir)
		}
		metrics[m] = next
	}
}

func nudgeDirection(m Metric) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(m))
	if h.Sum32()%2 == 0 {
		return 1
	}
	return -1
}

func meanOf(metrics map[Metric]int) float64 {
	if len(metrics) == 0 {
		return 0
	}
	sum := 0
	for _, s := range metrics {
		sum += s
	}
	return float64(sum) / float64(len(metrics))
}

func stddev(metrics map[Metric]int) float64 {
	if len(metrics) == 0 {
		return 0
	}
	mean := meanOf(metrics)
	var sq float64
	for _, s := range metrics {
		d := float64(s) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(metrics)))
}

func minMax(metrics map[Metric]int) (int, int) {
	first := true
	var lo, hi int
	for _, s := range metrics {
		if first {
			lo, hi = s, s
			first = false
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}

func sortedKeys(metrics map[Metric]int) []Metric {
	keys := make([]Metric, 0, len(metrics))
	for m := range metrics {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
