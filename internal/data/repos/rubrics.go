package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type RubricRepo interface {
	// Replace swaps the rubric for a metric wholesale.
	Replace(ctx context.Context, tx *gorm.DB, row *domain.ReferenceRubric) error
	Get(ctx context.Context, tx *gorm.DB, metricKey string) (*domain.ReferenceRubric, error)
}

type rubricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRubricRepo(db *gorm.DB, baseLog *logger.Logger) RubricRepo {
	return &rubricRepo{db: db, log: baseLog.With("repo", "RubricRepo")}
}

func (r *rubricRepo) Replace(ctx context.Context, tx *gorm.DB, row *domain.ReferenceRubric) error {
	t := tx
	if t == nil {
		t = r.db
	}
	row.ExtractedAt = time.Now().UTC()
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "metric_key"}},
			UpdateAll: true,
		}).
		Create(row).Error
}

func (r *rubricRepo) Get(ctx context.Context, tx *gorm.DB, metricKey string) (*domain.ReferenceRubric, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ReferenceRubric
	if err := t.WithContext(ctx).Where("metric_key = ?", metricKey).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
