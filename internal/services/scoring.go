// Package services composes the scoring pipeline: analyzer call, normalize,
// adjust, consistency blend, persist.
package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/consistency"
	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/mockdata"
	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/pkg/jsonx"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gcp"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gemini"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// DefaultAnalyzeTimeout bounds one analyzer call for score requests.
const DefaultAnalyzeTimeout = 120 * time.Second

// Analyzer is the slice of the gemini client the pipeline needs.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, media gemini.MediaRef) (string, error)
}

// FactorReader reads the adjustment factors once per request.
type FactorReader interface {
	AdjustmentFactors(ctx context.Context, tx *gorm.DB) (scoring.AdjustmentFactors, error)
}

// AnalyzeRequest carries one swing video plus its metadata through the
// pipeline.
type AnalyzeRequest struct {
	UserID *uuid.UUID

	MediaURL   string
	InlineData []byte
	MimeType   string

	ClubType  string
	ClubName  string
	Ownership domain.Ownership
	ProName   *string

	SkillLevel string

	// Fingerprint inputs; stable across re-uploads of the same file.
	VideoName           string
	VideoSize           int64
	VideoLastModifiedMs int64
}

type ScoringService struct {
	analyzer    Analyzer
	swings      repos.SwingRepo
	metrics     repos.MetricRepo
	rubrics     repos.RubricRepo
	factors     FactorReader
	consistency consistency.Store
	bucket      gcp.BucketService
	normalizer  *scoring.Normalizer
	applier     *scoring.Applier
	log         *logger.Logger
	timeout     time.Duration
}

type ScoringDeps struct {
	Analyzer    Analyzer
	Swings      repos.SwingRepo
	Metrics     repos.MetricRepo
	Rubrics     repos.RubricRepo
	Factors     FactorReader
	Consistency consistency.Store
	// Bucket may be nil; durable storage is then disabled and self swings
	// keep their ephemeral locator.
	Bucket  gcp.BucketService
	Weights scoring.WeightTable
	Jitter  bool
	Timeout time.Duration
}

func NewScoringService(deps ScoringDeps, baseLog *logger.Logger) *ScoringService {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultAnalyzeTimeout
	}
	if deps.Weights == nil {
		deps.Weights = scoring.DefaultWeights()
	}
	return &ScoringService{
		analyzer:    deps.Analyzer,
		swings:      deps.Swings,
		metrics:     deps.Metrics,
		rubrics:     deps.Rubrics,
		factors:     deps.Factors,
		consistency: deps.Consistency,
		bucket:      deps.Bucket,
		normalizer:  scoring.NewNormalizer(deps.Weights),
		applier:     scoring.NewApplier(deps.Weights, deps.Jitter),
		log:         baseLog.With("service", "ScoringService"),
		timeout:     deps.Timeout,
	}
}

// scorePayload is the closed reply shape demanded by the scoring prompt.
type scorePayload struct {
	Metrics         map[string]int `json:"metrics"`
	OverallScore    int            `json:"overallScore"`
	Recommendations []string       `json:"recommendations"`
}

// Analyze runs one swing through the full pipeline. Timeout and malformed
// analyzer replies fall back to deterministic mock scores tagged _isMockData;
// any other failure persists nothing and surfaces to the caller.
func (s *ScoringService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.SwingRecord, error) {
	record := &domain.SwingRecord{
		ID:         uuid.New(),
		UserID:     req.UserID,
		CapturedAt: time.Now().UTC(),
		ClubType:   req.ClubType,
		ClubName:   req.ClubName,
		Ownership:  req.Ownership,
		ProName:    req.ProName,
		SkillLevel: req.SkillLevel,
	}
	if req.MediaURL != "" {
		record.EphemeralRef = &req.MediaURL
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if req.VideoName != "" {
		record.VideoFingerprint = consistency.Fingerprint(req.VideoName, req.VideoSize, req.VideoLastModifiedMs)
	}

	skill, _ := scoring.ParseSkillLevel(req.SkillLevel)

	// Factors are read once here and never re-read mid-request.
	factors, err := s.factors.AdjustmentFactors(ctx, nil)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeTransientStorage, err)
	}

	raw, err := s.score(ctx, req)
	if err != nil {
		code := pkgerrors.CodeOf(err)
		if code != pkgerrors.CodeTimeout && code != pkgerrors.CodeMalformedResponse {
			return nil, err
		}
		s.log.Warn("analyzer unavailable; using mock scores",
			"swing_id", record.ID, "code", string(code))
		raw = mockdata.Generate(mockSeed(record), skill)
		record.IsMockData = true
	}

	normalized := s.normalizer.Normalize(raw)
	adjusted, _ := s.applier.Apply(normalized, factors, skill, record.ID.String())

	final := adjusted
	if record.VideoFingerprint != "" && s.consistency != nil {
		var blended bool
		final, blended = s.consistency.Commit(ctx, record.VideoFingerprint, adjusted)
		record.Blended = blended
	}

	if req.Ownership == domain.OwnershipSelf && len(req.InlineData) > 0 && s.bucket != nil {
		path := fmt.Sprintf("swings/%s", record.ID)
		url, err := s.bucket.Upload(ctx, path, req.MimeType, bytes.NewReader(req.InlineData))
		if err != nil {
			s.log.Warn("video upload failed; persisting without durable ref",
				"swing_id", record.ID, "error", err)
		} else {
			record.StoragePath = &url
		}
	}

	record.AnalyzedAt = time.Now().UTC()
	record.Scores = datatypes.NewJSONType(final)
	if err := s.swings.Create(ctx, nil, record); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeTransientStorage, err)
	}
	s.log.Info("swing analyzed",
		"swing_id", record.ID,
		"overall", final.Overall,
		"blended", record.Blended,
		"mock", record.IsMockData,
	)
	return record, nil
}

func (s *ScoringService) score(ctx context.Context, req AnalyzeRequest) (scoring.ScoreVector, error) {
	descriptors, err := s.metrics.List(ctx, nil)
	if err != nil {
		return scoring.ScoreVector{}, pkgerrors.New(pkgerrors.CodeTransientStorage, err)
	}
	rubrics := map[string]*domain.ReferenceRubric{}
	for _, m := range scoring.AllMetrics() {
		r, err := s.rubrics.Get(ctx, nil, string(m))
		if err == nil && r != nil {
			rubrics[string(m)] = r
		}
	}
	prompt := BuildScoringPrompt(descriptors, rubrics, req.SkillLevel)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.analyzer.Analyze(callCtx, prompt, gemini.MediaRef{
		URL:        req.MediaURL,
		InlineData: req.InlineData,
		MimeType:   req.MimeType,
	})
	if err != nil {
		return scoring.ScoreVector{}, err
	}

	var payload scorePayload
	if err := jsonx.Decode(reply, &payload); err != nil {
		return scoring.ScoreVector{}, err
	}
	if len(payload.Metrics) == 0 {
		return scoring.ScoreVector{}, pkgerrors.Newf(pkgerrors.CodeMalformedResponse, "reply scored no metrics")
	}

	metrics := make(map[scoring.Metric]int, len(payload.Metrics))
	for key, score := range payload.Metrics {
		metrics[scoring.Metric(key)] = score
	}
	if len(payload.Recommendations) > 3 {
		payload.Recommendations = payload.Recommendations[:3]
	}
	return scoring.ScoreVector{
		Metrics:         metrics,
		Overall:         payload.OverallScore,
		Recommendations: payload.Recommendations,
	}, nil
}

func mockSeed(record *domain.SwingRecord) string {
	if record.VideoFingerprint != "" {
		return record.VideoFingerprint
	}
	return record.ID.String()
}
