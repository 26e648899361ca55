package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// BuildScoringPrompt renders the swing-analysis prompt. Metrics are listed in
// stable order; a metric with a stored rubric carries its scoring bands so the
// analyzer grades against the reference instead of improvising.
func BuildScoringPrompt(descriptors []*domain.MetricDescriptor, rubrics map[string]*domain.ReferenceRubric, skillLevel string) string {
	byKey := make(map[string]*domain.MetricDescriptor, len(descriptors))
	for _, d := range descriptors {
		byKey[d.Key] = d
	}

	var b strings.Builder
	b.WriteString("You are a golf swing analysis expert. Watch this swing video and score every metric below from 0 to 100.\n")
	if skillLevel != "" {
		fmt.Fprintf(&b, "The player self-reports as %s level; judge form, not outcome.\n", skillLevel)
	}
	b.WriteString("\nMetrics to score:\n")
	for _, m := range scoring.AllMetrics() {
		key := string(m)
		if d, ok := byKey[key]; ok {
			fmt.Fprintf(&b, "- %s (%s, %s, weight %.2f)\n", key, d.Category, d.Difficulty, d.Weighting)
		} else {
			fmt.Fprintf(&b, "- %s\n", key)
		}
		if r, ok := rubrics[key]; ok {
			bands := r.ScoringRubric.Data()
			labels := make([]string, 0, len(bands))
			for label := range bands {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				fmt.Fprintf(&b, "    %s: %s\n", label, bands[label])
			}
		}
	}
	b.WriteString(`
Reply with exactly one JSON object and nothing else:
{
  "metrics": {"<metricKey>": <0-100 integer>, ...},
  "overallScore": <0-100 integer>,
  "recommendations": ["...", "...", "..."]
}

Score every listed metric. Give one to three concrete, actionable recommendations.`)
	return b.String()
}
