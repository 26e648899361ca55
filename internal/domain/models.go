// Package domain holds the persisted entities. Rows are written by the repos
// in internal/data/repos and mapped to Postgres by gorm.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// Ownership discriminates whose swing was recorded.
type Ownership string

const (
	OwnershipSelf   Ownership = "self"
	OwnershipFriend Ownership = "friend"
	OwnershipPro    Ownership = "pro"
)

// Verdict is a user's judgment of a past score.
type Verdict string

const (
	VerdictAccurate    Verdict = "accurate"
	VerdictTooHigh     Verdict = "too_high"
	VerdictTooLow      Verdict = "too_low"
	VerdictFormIssue   Verdict = "form_issue"
	VerdictPacingIssue Verdict = "pacing_issue"
	VerdictNotHelpful  Verdict = "not_helpful"
)

func ParseVerdict(s string) (Verdict, bool) {
	switch Verdict(s) {
	case VerdictAccurate, VerdictTooHigh, VerdictTooLow,
		VerdictFormIssue, VerdictPacingIssue, VerdictNotHelpful:
		return Verdict(s), true
	default:
		return "", false
	}
}

// AdjustmentPriorityNever excludes a feedback event from aggregation.
const AdjustmentPriorityNever = "never"

// SwingRecord is one analyzed swing. Immutable after creation except for the
// Blended flag set by the consistency store.
type SwingRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`
	CapturedAt time.Time  `json:"capturedAt"`
	AnalyzedAt time.Time  `json:"analyzedAt"`

	Scores datatypes.JSONType[scoring.ScoreVector] `json:"scores"`

	ClubType  string    `json:"clubType"`
	ClubName  string    `json:"clubName"`
	Ownership Ownership `gorm:"index" json:"ownership"`
	ProName   *string   `json:"proName,omitempty"`

	// StoragePath points at the durable object store; only self-owned
	// swings may carry one. EphemeralRef is a short-lived locator used for
	// friend/pro swings.
	StoragePath  *string `json:"storagePath,omitempty"`
	EphemeralRef *string `json:"ephemeralRef,omitempty"`

	VideoFingerprint string `gorm:"index" json:"videoFingerprint,omitempty"`
	SkillLevel       string `json:"skillLevel,omitempty"`

	Blended    bool `json:"_blended"`
	IsMockData bool `json:"_isMockData"`
}

func (SwingRecord) TableName() string { return "swings" }

// Validate enforces the per-ownership invariants: self swings may persist
// video durably, friend swings may not, pro swings additionally require the
// pro's name.
func (r *SwingRecord) Validate() error {
	switch r.Ownership {
	case OwnershipSelf:
	case OwnershipFriend:
		if r.StoragePath != nil {
			return fmt.Errorf("friend swing must not reference durable storage")
		}
	case OwnershipPro:
		if r.StoragePath != nil {
			return fmt.Errorf("pro swing must not reference durable storage")
		}
		if r.ProName == nil || *r.ProName == "" {
			return fmt.Errorf("pro swing requires proName")
		}
	default:
		return fmt.Errorf("unknown ownership %q", r.Ownership)
	}
	return nil
}

// FeedbackEvent is one append-only ledger entry. Immutable once written.
type FeedbackEvent struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	SwingID   *uuid.UUID `gorm:"type:uuid;index" json:"swingId,omitempty"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"userId,omitempty"`

	Verdict        Verdict                                `json:"verdict"`
	MetricVerdicts datatypes.JSONType[map[string]Verdict] `json:"metricVerdicts,omitempty"`

	Confidence int    `json:"confidence"`
	SkillLevel string `gorm:"index" json:"skillLevel"`
	IsProSwing bool   `json:"isProSwing"`

	// AdjustmentPriority set to "never" keeps the event out of aggregation.
	AdjustmentPriority *string `json:"adjustmentPriority,omitempty"`

	ScoreSnapshot datatypes.JSONType[scoring.ScoreVector] `json:"scoreSnapshot"`
}

func (FeedbackEvent) TableName() string { return "analysis_feedback" }

func (e *FeedbackEvent) Validate() error {
	if _, ok := ParseVerdict(string(e.Verdict)); !ok {
		return fmt.Errorf("unknown verdict %q", e.Verdict)
	}
	for metric, v := range e.MetricVerdicts.Data() {
		if _, ok := ParseVerdict(string(v)); !ok {
			return fmt.Errorf("unknown metric verdict %q for %s", v, metric)
		}
	}
	if e.Confidence < 1 || e.Confidence > 5 {
		return fmt.Errorf("confidence %d outside [1,5]", e.Confidence)
	}
	if _, ok := scoring.ParseSkillLevel(e.SkillLevel); !ok {
		return fmt.Errorf("unknown skill level %q", e.SkillLevel)
	}
	return nil
}

// MetricDescriptor is the stored description of one closed-set metric.
type MetricDescriptor struct {
	Key        string    `gorm:"primaryKey" json:"key"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Difficulty string    `json:"difficulty"`
	Weighting  float64   `json:"weighting"`
	ExampleURL string    `json:"exampleUrl,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (MetricDescriptor) TableName() string { return "metrics" }

// ReferenceRubric is the structured rubric extracted from an authoritative
// instructional example for one metric. Replaced whole, never mutated.
type ReferenceRubric struct {
	MetricKey string `gorm:"primaryKey" json:"metricKey"`

	TechnicalGuidelines datatypes.JSONType[[]string] `json:"technicalGuidelines"`
	IdealForm           datatypes.JSONType[[]string] `json:"idealForm"`
	CommonMistakes      datatypes.JSONType[[]string] `json:"commonMistakes"`
	CoachingCues        datatypes.JSONType[[]string] `json:"coachingCues"`

	// ScoringRubric maps the band labels "90+", "70-89", "50-69", "<50".
	ScoringRubric datatypes.JSONType[map[string]string] `json:"scoringRubric"`

	SourceVideoID string    `json:"sourceVideoId"`
	ExtractedAt   time.Time `json:"extractedAt"`
}

func (ReferenceRubric) TableName() string { return "reference_models" }

// SystemDocument is a JSONB singleton row; the adjustment factors and the
// feedback-processing watermark live here.
type SystemDocument struct {
	ID        string         `gorm:"primaryKey"`
	Doc       datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (SystemDocument) TableName() string { return "system_documents" }

const (
	SystemDocAdjustmentFactors  = "adjustment_factors"
	SystemDocFeedbackProcessing = "feedback_processing"
)
