package repos

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

// SystemRepo holds the process-wide singleton documents. Replacement is a
// single upsert statement, so readers observe either the old or the new
// document, never a partial merge. The feedback scheduler is the sole writer.
type SystemRepo interface {
	AdjustmentFactors(ctx context.Context, tx *gorm.DB) (scoring.AdjustmentFactors, error)
	ReplaceAdjustmentFactors(ctx context.Context, tx *gorm.DB, factors scoring.AdjustmentFactors) error

	LastProcessedAt(ctx context.Context, tx *gorm.DB) (time.Time, error)
	SetLastProcessedAt(ctx context.Context, tx *gorm.DB, at time.Time) error
}

type feedbackProcessingDoc struct {
	LastProcessedAt time.Time `json:"lastProcessedAt"`
}

type systemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemRepo(db *gorm.DB, baseLog *logger.Logger) SystemRepo {
	return &systemRepo{db: db, log: baseLog.With("repo", "SystemRepo")}
}

func (r *systemRepo) AdjustmentFactors(ctx context.Context, tx *gorm.DB) (scoring.AdjustmentFactors, error) {
	var factors scoring.AdjustmentFactors
	found, err := r.get(ctx, tx, domain.SystemDocAdjustmentFactors, &factors)
	if err != nil {
		return scoring.ZeroFactors(), err
	}
	if !found {
		return scoring.ZeroFactors(), nil
	}
	if factors.Metrics == nil {
		factors.Metrics = map[scoring.Metric]int{}
	}
	return factors, nil
}

func (r *systemRepo) ReplaceAdjustmentFactors(ctx context.Context, tx *gorm.DB, factors scoring.AdjustmentFactors) error {
	return r.set(ctx, tx, domain.SystemDocAdjustmentFactors, factors)
}

func (r *systemRepo) LastProcessedAt(ctx context.Context, tx *gorm.DB) (time.Time, error) {
	var doc feedbackProcessingDoc
	found, err := r.get(ctx, tx, domain.SystemDocFeedbackProcessing, &doc)
	if err != nil || !found {
		return time.Time{}, err
	}
	return doc.LastProcessedAt, nil
}

func (r *systemRepo) SetLastProcessedAt(ctx context.Context, tx *gorm.DB, at time.Time) error {
	return r.set(ctx, tx, domain.SystemDocFeedbackProcessing, feedbackProcessingDoc{LastProcessedAt: at})
}

func (r *systemRepo) get(ctx context.Context, tx *gorm.DB, id string, v interface{}) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*domain.SystemDocument
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(rows[0].Doc, v); err != nil {
		return false, err
	}
	return true, nil
}

func (r *systemRepo) set(ctx context.Context, tx *gorm.DB, id string, v interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	row := &domain.SystemDocument{ID: id, Doc: raw, UpdatedAt: time.Now().UTC()}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(row).Error
}
