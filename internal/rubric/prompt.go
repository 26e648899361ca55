package rubric

import (
	"fmt"
	"strings"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
)

// bandLabels are the four required scoring bands, best to worst.
var bandLabels = []string{"90+", "70-89", "50-69", "<50"}

// BuildPrompt renders the extraction prompt for one metric. The output is
// deterministic for a given descriptor so repeated extractions are comparable.
func BuildPrompt(desc *domain.MetricDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a golf coaching expert. Watch this instructional video and extract a scoring rubric for the swing metric %q (%s).\n\n", desc.Title, desc.Key)
	fmt.Fprintf(&b, "Metric category: %s\n", desc.Category)
	fmt.Fprintf(&b, "Metric difficulty: %s\n", desc.Difficulty)
	fmt.Fprintf(&b, "Weight in overall score: %.2f\n\n", desc.Weighting)
	b.WriteString("Reply with exactly one JSON object and nothing else, in this shape:\n")
	b.WriteString(`{
  "technicalGuidelines": ["..."],
  "idealForm": ["..."],
  "commonMistakes": ["..."],
  "coachingCues": ["..."],
  "scoringRubric": {
`)
	for i, label := range bandLabels {
		sep := ","
		if i == len(bandLabels)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: \"...\"%s\n", label, sep)
	}
	b.WriteString(`  }
}
`)
	b.WriteString("\nEach list must hold 3 to 6 concise, observable statements. Each scoring band describes what a swing at that level looks like for this metric only.")
	return b.String()
}
