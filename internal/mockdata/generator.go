// Package mockdata produces deterministic placeholder scores when the external
// analyzer times out or replies with garbage. Records built from this package
// are tagged _isMockData so clients can label them.
package mockdata

import (
	"fmt"
	"hash/fnv"

	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// Skill-dependent score bands. Scores land in [base, base+spread).
var bands = map[scoring.SkillLevel]struct {
	base   int
	spread int
}{
	scoring.SkillPro:      {78, 15},
	scoring.SkillAdvanced: {68, 18},
	scoring.SkillAmateur:  {55, 22},
	scoring.SkillBeginner: {42, 24},
}

var recommendationPool = []string{
	"Slow your backswing tempo and let the club set naturally at the top.",
	"Keep your head steady through impact; let the body rotate under it.",
	"Work on shallowing the club earlier in the downswing.",
	"Check your grip pressure; aim for relaxed hands at address.",
	"Finish your rotation fully so the follow-through stays balanced.",
	"Start the downswing from the hips, not the arms.",
}

// Generate builds a full deterministic score vector from a seed. The same seed
// always yields the same vector, so retries of a failed analysis stay stable.
func Generate(seed string, skill scoring.SkillLevel) scoring.ScoreVector {
	band, ok := bands[skill]
	if !ok {
		band = bands[scoring.SkillAmateur]
	}

	metrics := make(map[scoring.Metric]int, len(scoring.AllMetrics()))
	for _, m := range metrics17() {
		metrics[m] = band.base + hashInt(seed+"|"+string(m), band.spread)
	}

	recs := make([]string, 0, 3)
	start := hashInt(seed+"|recs", len(recommendationPool))
	for i := 0; i < 3; i++ {
		recs = append(recs, recommendationPool[(start+i)%len(recommendationPool)])
	}

	return scoring.ScoreVector{
		Metrics:         metrics,
		Overall:         scoring.DefaultWeights().WeightedOverall(metrics),
		Recommendations: recs,
	}
}

func metrics17() []scoring.Metric { return scoring.AllMetrics() }

func hashInt(s string, mod int) int {
	if mod <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = fmt.Fprint(h, s)
	return int(h.Sum64() % uint64(mod))
}
