package rubric

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gemini"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type fakeAnalyzer struct {
	reply string
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, _ gemini.MediaRef) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeMetrics struct {
	rows map[string]*domain.MetricDescriptor
}

func (f *fakeMetrics) Upsert(_ context.Context, _ *gorm.DB, rows []*domain.MetricDescriptor) error {
	for _, r := range rows {
		f.rows[r.Key] = r
	}
	return nil
}

func (f *fakeMetrics) Get(_ context.Context, _ *gorm.DB, key string) (*domain.MetricDescriptor, error) {
	return f.rows[key], nil
}

func (f *fakeMetrics) List(_ context.Context, _ *gorm.DB) ([]*domain.MetricDescriptor, error) {
	var out []*domain.MetricDescriptor
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

type fakeRubrics struct {
	rows map[string]*domain.ReferenceRubric
}

func (f *fakeRubrics) Replace(_ context.Context, _ *gorm.DB, row *domain.ReferenceRubric) error {
	row.ExtractedAt = time.Now().UTC()
	f.rows[row.MetricKey] = row
	return nil
}

func (f *fakeRubrics) Get(_ context.Context, _ *gorm.DB, key string) (*domain.ReferenceRubric, error) {
	return f.rows[key], nil
}

func newTestPipeline(t *testing.T, analyzer Analyzer) (*Pipeline, *fakeMetrics, *fakeRubrics) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	metrics := &fakeMetrics{rows: map[string]*domain.MetricDescriptor{
		"grip": {Key: "grip", Title: "Grip", Category: "setup", Difficulty: "beginner", Weighting: 0.07},
	}}
	rubrics := &fakeRubrics{rows: map[string]*domain.ReferenceRubric{}}
	return NewPipeline(analyzer, metrics, rubrics, log, time.Minute), metrics, rubrics
}

const goodReply = `{
  "technicalGuidelines": ["Neutral grip with two knuckles visible"],
  "idealForm": ["Hands work as one unit"],
  "commonMistakes": ["Grip too strong in the trail hand"],
  "coachingCues": ["Shake hands with the club"],
  "scoringRubric": {
    "90+": "Tour-level neutral grip",
    "70-89": "Minor pressure issues",
    "50-69": "Visible misalignment",
    "<50": "Fundamentally flawed hold"
  }
}`

func TestExtractPersistsValidRubric(t *testing.T) {
	p, _, rubrics := newTestPipeline(t, &fakeAnalyzer{reply: goodReply})

	row, err := p.Extract(context.Background(), "grip", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if row.SourceVideoID != "dQw4w9WgXcQ" {
		t.Fatalf("source video id = %q", row.SourceVideoID)
	}
	if row.ExtractedAt.IsZero() {
		t.Fatalf("extractedAt not stamped")
	}
	stored := rubrics.rows["grip"]
	if stored == nil {
		t.Fatalf("rubric not persisted")
	}
	if got := stored.ScoringRubric.Data()["<50"]; got != "Fundamentally flawed hold" {
		t.Fatalf("lowest band = %q", got)
	}
}

func TestExtractAcceptsFencedReply(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeAnalyzer{reply: "```json\n" + goodReply + "\n```"})
	if _, err := p.Extract(context.Background(), "grip", "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("fenced reply rejected: %v", err)
	}
}

func TestExtractMissingScoringRubric(t *testing.T) {
	reply := `{
	  "technicalGuidelines": ["a"], "idealForm": ["b"],
	  "commonMistakes": ["c"], "coachingCues": ["d"]
	}`
	p, _, rubrics := newTestPipeline(t, &fakeAnalyzer{reply: reply})

	_, err := p.Extract(context.Background(), "grip", "https://youtu.be/dQw4w9WgXcQ")
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidRubric) {
		t.Fatalf("err = %v, want invalid_rubric", err)
	}
	if len(rubrics.rows) != 0 {
		t.Fatalf("invalid rubric was persisted")
	}
}

func TestExtractIncompleteBands(t *testing.T) {
	reply := `{
	  "technicalGuidelines": ["a"], "idealForm": ["b"],
	  "commonMistakes": ["c"], "coachingCues": ["d"],
	  "scoringRubric": {"90+": "x", "70-89": "y"}
	}`
	p, _, _ := newTestPipeline(t, &fakeAnalyzer{reply: reply})
	if _, err := p.Extract(context.Background(), "grip", "https://youtu.be/dQw4w9WgXcQ"); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidRubric) {
		t.Fatalf("err = %v, want invalid_rubric", err)
	}
}

func TestExtractMalformedReply(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeAnalyzer{reply: "I could not analyze this video, sorry."})
	if _, err := p.Extract(context.Background(), "grip", "https://youtu.be/dQw4w9WgXcQ"); !pkgerrors.HasCode(err, pkgerrors.CodeMalformedResponse) {
		t.Fatalf("err = %v, want malformed_response", err)
	}
}

func TestExtractBadURLSkipsAnalyzer(t *testing.T) {
	analyzer := &fakeAnalyzer{reply: goodReply}
	p, _, _ := newTestPipeline(t, analyzer)
	if _, err := p.Extract(context.Background(), "grip", "https://example.com/clip.mp4"); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference) {
		t.Fatalf("err = %v, want invalid_reference", err)
	}
	if analyzer.calls != 0 {
		t.Fatalf("analyzer called for an unextractable URL")
	}
}

func TestExtractSwingBackAliasCanonicalized(t *testing.T) {
	p, metrics, rubrics := newTestPipeline(t, &fakeAnalyzer{reply: goodReply})
	metrics.rows["backswing"] = &domain.MetricDescriptor{
		Key: "backswing", Title: "Backswing", Category: "swing", Difficulty: "intermediate", Weighting: 0.10,
	}

	row, err := p.Extract(context.Background(), "swingBack", "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if row.MetricKey != "backswing" {
		t.Fatalf("metric key = %q, want backswing", row.MetricKey)
	}
	if rubrics.rows["backswing"] == nil {
		t.Fatalf("rubric stored under alias, not canonical key")
	}
}

func TestExtractAllNeverAborts(t *testing.T) {
	analyzer := &fakeAnalyzer{reply: goodReply}
	p, metrics, _ := newTestPipeline(t, analyzer)
	metrics.rows["grip"].ExampleURL = "https://youtu.be/dQw4w9WgXcQ"
	// All other metrics have no descriptor; each must fail independently.

	results := p.ExtractAll(context.Background())
	if len(results) != 17 {
		t.Fatalf("results = %d, want 17", len(results))
	}
	okCount := 0
	for _, r := range results {
		if r.OK {
			okCount++
			if r.MetricKey != "grip" {
				t.Fatalf("unexpected success for %s", r.MetricKey)
			}
		} else if r.Error == "" {
			t.Fatalf("failed result for %s carries no error", r.MetricKey)
		}
	}
	if okCount != 1 {
		t.Fatalf("ok count = %d, want 1", okCount)
	}
}
