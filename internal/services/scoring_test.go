package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/consistency"
	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gemini"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

type fakeAnalyzer struct {
	reply string
	err   error
}

func (f *fakeAnalyzer) Analyze(context.Context, string, gemini.MediaRef) (string, error) {
	return f.reply, f.err
}

type fakeSwings struct {
	created []*domain.SwingRecord
}

func (f *fakeSwings) Create(_ context.Context, _ *gorm.DB, row *domain.SwingRecord) error {
	if err := row.Validate(); err != nil {
		return err
	}
	f.created = append(f.created, row)
	return nil
}

func (f *fakeSwings) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*domain.SwingRecord, error) {
	for _, r := range f.created {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeSwings) ListByUser(context.Context, *gorm.DB, uuid.UUID, int) ([]*domain.SwingRecord, error) {
	return f.created, nil
}

type fakeMetrics struct{}

func (fakeMetrics) Upsert(context.Context, *gorm.DB, []*domain.MetricDescriptor) error { return nil }
func (fakeMetrics) Get(context.Context, *gorm.DB, string) (*domain.MetricDescriptor, error) {
	return nil, nil
}
func (fakeMetrics) List(context.Context, *gorm.DB) ([]*domain.MetricDescriptor, error) {
	return nil, nil
}

type fakeRubrics struct{}

func (fakeRubrics) Replace(context.Context, *gorm.DB, *domain.ReferenceRubric) error { return nil }
func (fakeRubrics) Get(context.Context, *gorm.DB, string) (*domain.ReferenceRubric, error) {
	return nil, nil
}

type fakeFactors struct {
	factors scoring.AdjustmentFactors
}

func (f *fakeFactors) AdjustmentFactors(context.Context, *gorm.DB) (scoring.AdjustmentFactors, error) {
	return f.factors, nil
}

const goodReply = `{
  "metrics": {
    "confidence": 70, "focus": 65, "stiffness": 60, "stance": 72, "grip": 68,
    "ballPosition": 66, "backswing": 74, "swingForward": 71, "swingSpeed": 63,
    "shallowing": 58, "impactPosition": 69, "hipRotation": 62, "pacing": 67,
    "followThrough": 64, "headPosition": 73, "shoulderPosition": 61, "armPosition": 59
  },
  "overallScore": 67,
  "recommendations": ["Shallow the club earlier.", "Hold the finish."]
}`

func newTestService(t *testing.T, analyzer Analyzer) (*ScoringService, *fakeSwings) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	swings := &fakeSwings{}
	svc := NewScoringService(ScoringDeps{
		Analyzer:    analyzer,
		Swings:      swings,
		Metrics:     fakeMetrics{},
		Rubrics:     fakeRubrics{},
		Factors:     &fakeFactors{factors: scoring.ZeroFactors()},
		Consistency: consistency.NewMemoryStore(),
	}, log)
	return svc, swings
}

func selfRequest() AnalyzeRequest {
	return AnalyzeRequest{
		MediaURL:            "https://videos.example.com/upload/abc",
		MimeType:            "video/mp4",
		ClubType:            "driver",
		ClubName:            "TaylorMade Qi10",
		Ownership:           domain.OwnershipSelf,
		SkillLevel:          "amateur",
		VideoName:           "swing.mp4",
		VideoSize:           1 << 20,
		VideoLastModifiedMs: 1724900000000,
	}
}

func TestAnalyzePersistsRealScores(t *testing.T) {
	svc, swings := newTestService(t, &fakeAnalyzer{reply: goodReply})

	record, err := svc.Analyze(context.Background(), selfRequest())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if record.IsMockData {
		t.Fatalf("real reply tagged as mock")
	}
	if len(swings.created) != 1 {
		t.Fatalf("persisted %d records, want 1", len(swings.created))
	}
	v := record.Scores.Data()
	if len(v.Metrics) != 17 {
		t.Fatalf("metrics = %d, want 17", len(v.Metrics))
	}
	if v.Overall < 0 || v.Overall > 100 {
		t.Fatalf("overall %d outside [0,100]", v.Overall)
	}
	if record.VideoFingerprint == "" {
		t.Fatalf("fingerprint not derived")
	}
}

func TestAnalyzeTimeoutFallsBackToMock(t *testing.T) {
	svc, swings := newTestService(t, &fakeAnalyzer{
		err: pkgerrors.Newf(pkgerrors.CodeTimeout, "analyzer deadline"),
	})

	record, err := svc.Analyze(context.Background(), selfRequest())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !record.IsMockData {
		t.Fatalf("timeout fallback not tagged _isMockData")
	}
	if len(swings.created) != 1 {
		t.Fatalf("mock record not persisted")
	}
	if len(record.Scores.Data().Metrics) != 17 {
		t.Fatalf("mock vector incomplete")
	}
}

func TestAnalyzeMalformedReplyFallsBackToMock(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{reply: "the swing looked fine to me"})

	record, err := svc.Analyze(context.Background(), selfRequest())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !record.IsMockData {
		t.Fatalf("malformed reply fallback not tagged _isMockData")
	}
}

func TestAnalyzeOtherErrorsPersistNothing(t *testing.T) {
	svc, swings := newTestService(t, &fakeAnalyzer{
		err: pkgerrors.Newf(pkgerrors.CodePermanentStorage, "analyzer rejected key"),
	})

	if _, err := svc.Analyze(context.Background(), selfRequest()); err == nil {
		t.Fatalf("non-fallback error swallowed")
	}
	if len(swings.created) != 0 {
		t.Fatalf("record persisted despite failure")
	}
}

func TestAnalyzeOwnershipInvariants(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{reply: goodReply})

	t.Run("pro requires proName", func(t *testing.T) {
		req := selfRequest()
		req.Ownership = domain.OwnershipPro
		if _, err := svc.Analyze(context.Background(), req); err == nil {
			t.Fatalf("pro swing without proName accepted")
		}
	})

	t.Run("friend keeps ephemeral ref only", func(t *testing.T) {
		req := selfRequest()
		req.Ownership = domain.OwnershipFriend
		record, err := svc.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if record.StoragePath != nil {
			t.Fatalf("friend swing got a durable storage ref")
		}
		if record.EphemeralRef == nil || *record.EphemeralRef != req.MediaURL {
			t.Fatalf("friend swing lost its ephemeral locator")
		}
	})
}

func TestAnalyzeSameFingerprintBlends(t *testing.T) {
	// First pass scores low, second scores high; the shared fingerprint
	// must pull the second result toward the first.
	low := strings.Replace(goodReply, `"overallScore": 67`, `"overallScore": 40`, 1)
	low = strings.NewReplacer(
		"70", "40", "65", "40", "72", "40", "68", "40", "74", "40",
		"71", "40", "69", "40", "73", "40",
	).Replace(low)

	svc, _ := newTestService(t, &fakeAnalyzer{reply: low})
	first, err := svc.Analyze(context.Background(), selfRequest())
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}

	svc2, _ := newTestService(t, &fakeAnalyzer{reply: goodReply})
	svc2.consistency = svc.consistency
	second, err := svc2.Analyze(context.Background(), selfRequest())
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}

	firstOverall := first.Scores.Data().Overall
	secondOverall := second.Scores.Data().Overall
	if !second.Blended {
		t.Fatalf("divergent re-analysis not blended (first %d, second %d)", firstOverall, secondOverall)
	}
	if secondOverall <= firstOverall {
		t.Fatalf("blend inverted the ordering: first %d, second %d", firstOverall, secondOverall)
	}
}
