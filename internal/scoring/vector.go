package scoring

import "math"

// SkillLevel conditions adjustment application and feedback aggregation.
type SkillLevel string

const (
	SkillPro      SkillLevel = "pro"
	SkillAdvanced SkillLevel = "advanced"
	SkillAmateur  SkillLevel = "amateur"
	SkillBeginner SkillLevel = "beginner"
)

// ParseSkillLevel returns the typed level, ok=false for anything else.
func ParseSkillLevel(s string) (SkillLevel, bool) {
	switch SkillLevel(s) {
	case SkillPro, SkillAdvanced, SkillAmateur, SkillBeginner:
		return SkillLevel(s), true
	default:
		return "", false
	}
}

// ScoreVector is one analyzed swing's per-metric scores plus the overall and
// the analyzer's recommendations.
type ScoreVector struct {
	Metrics         map[Metric]int `json:"metrics"`
	Overall         int            `json:"overallScore"`
	Recommendations []string       `json:"recommendations,omitempty"`

	// Defaulted lists closed-set metrics that were absent on input and
	// filled with the midpoint.
	Defaulted []Metric `json:"defaultedMetrics,omitempty"`
}

// Clone returns a deep copy.
func (v ScoreVector) Clone() ScoreVector {
	out := v
	out.Metrics = make(map[Metric]int, len(v.Metrics))
	for m, s := range v.Metrics {
		out.Metrics[m] = s
	}
	out.Recommendations = append([]string(nil), v.Recommendations...)
	out.Defaulted = append([]Metric(nil), v.Defaulted...)
	return out
}

// Clamp bounds a score into [0,100].
func Clamp(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func clampRound(f float64) int {
	return Clamp(int(math.Round(f)))
}
