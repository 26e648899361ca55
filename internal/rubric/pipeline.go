package rubric

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/pkg/jsonx"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gemini"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// DefaultTimeout bounds one analyzer call for rubric extraction.
const DefaultTimeout = 180 * time.Second

// Analyzer is the slice of the gemini client this pipeline needs.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, media gemini.MediaRef) (string, error)
}

type Pipeline struct {
	analyzer Analyzer
	metrics  repos.MetricRepo
	rubrics  repos.RubricRepo
	log      *logger.Logger
	timeout  time.Duration
}

func NewPipeline(analyzer Analyzer, metrics repos.MetricRepo, rubrics repos.RubricRepo, baseLog *logger.Logger, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		analyzer: analyzer,
		metrics:  metrics,
		rubrics:  rubrics,
		log:      baseLog.With("service", "RubricPipeline"),
		timeout:  timeout,
	}
}

// rubricPayload is the closed reply shape demanded by the prompt.
type rubricPayload struct {
	TechnicalGuidelines []string          `json:"technicalGuidelines"`
	IdealForm           []string          `json:"idealForm"`
	CommonMistakes      []string          `json:"commonMistakes"`
	CoachingCues        []string          `json:"coachingCues"`
	ScoringRubric       map[string]string `json:"scoringRubric"`
}

func (p rubricPayload) validate() error {
	switch {
	case len(p.TechnicalGuidelines) == 0:
		return pkgerrors.Newf(pkgerrors.CodeInvalidRubric, "missing technicalGuidelines")
	case len(p.IdealForm) == 0:
		return pkgerrors.Newf(pkgerrors.CodeInvalidRubric, "missing idealForm")
	case len(p.CommonMistakes) == 0:
		return pkgerrors.Newf(pkgerrors.CodeInvalidRubric, "missing commonMistakes")
	case len(p.CoachingCues) == 0:
		return pkgerrors.Newf(pkgerrors.CodeInvalidRubric, "missing coachingCues")
	case len(p.ScoringRubric) == 0:
		return pkgerrors.Newf(pkgerrors.CodeInvalidRubric, "missing scoringRubric")
	}
	for _, label := range bandLabels {
		if _, ok := p.ScoringRubric[label]; !ok {
			return pkgerrors.Newf(pkgerrors.CodeInvalidRubric, "scoringRubric missing band %q", label)
		}
	}
	return nil
}

// Extract runs the full pipeline for one metric: resolve the video id, call
// the analyzer, validate the reply shape, and replace the stored rubric.
// Nothing is written when any step fails.
func (p *Pipeline) Extract(ctx context.Context, metricKey, exampleURL string) (*domain.ReferenceRubric, error) {
	metric, ok := scoring.Canonical(metricKey)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidReference, "unknown metric %q", metricKey)
	}

	desc, err := p.metrics.Get(ctx, nil, string(metric))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeTransientStorage, err)
	}
	if desc == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidReference, "no descriptor for metric %q; run initialize-metrics first", metric)
	}

	videoID, err := VideoID(exampleURL)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.analyzer.Analyze(callCtx, BuildPrompt(desc), gemini.MediaRef{
		URL:      exampleURL,
		MimeType: "video/*",
	})
	if err != nil {
		return nil, err
	}

	var payload rubricPayload
	if err := jsonx.Decode(reply, &payload); err != nil {
		return nil, err
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}

	row := &domain.ReferenceRubric{
		MetricKey:           string(metric),
		TechnicalGuidelines: datatypes.NewJSONType(payload.TechnicalGuidelines),
		IdealForm:           datatypes.NewJSONType(payload.IdealForm),
		CommonMistakes:      datatypes.NewJSONType(payload.CommonMistakes),
		CoachingCues:        datatypes.NewJSONType(payload.CoachingCues),
		ScoringRubric:       datatypes.NewJSONType(payload.ScoringRubric),
		SourceVideoID:       videoID,
	}
	if err := p.rubrics.Replace(ctx, nil, row); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeTransientStorage, err)
	}
	p.log.Info("rubric extracted", "metric", metric, "video_id", videoID)
	return row, nil
}

// BatchResult is one metric's outcome in a batch extraction.
type BatchResult struct {
	MetricKey string `json:"metricKey"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// ExtractAll walks the full metric set sequentially, pulling each metric's
// example URL from its descriptor. A failed metric is recorded and the walk
// continues; the batch itself never fails.
func (p *Pipeline) ExtractAll(ctx context.Context) []BatchResult {
	results := make([]BatchResult, 0, len(scoring.AllMetrics()))
	for _, metric := range scoring.AllMetrics() {
		res := BatchResult{MetricKey: string(metric)}

		desc, err := p.metrics.Get(ctx, nil, string(metric))
		switch {
		case err != nil:
			res.Error = err.Error()
		case desc == nil || desc.ExampleURL == "":
			res.Error = "no example URL configured"
		default:
			if _, err := p.Extract(ctx, string(metric), desc.ExampleURL); err != nil {
				res.Error = err.Error()
			} else {
				res.OK = true
			}
		}

		if !res.OK {
			p.log.Warn("batch extraction failed for metric", "metric", metric, "error", res.Error)
		}
		results = append(results, res)
	}
	return results
}
