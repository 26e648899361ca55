package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type MetricRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*domain.MetricDescriptor) error
	Get(ctx context.Context, tx *gorm.DB, key string) (*domain.MetricDescriptor, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.MetricDescriptor, error)
}

type metricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricRepo(db *gorm.DB, baseLog *logger.Logger) MetricRepo {
	return &metricRepo{db: db, log: baseLog.With("repo", "MetricRepo")}
}

func (r *metricRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*domain.MetricDescriptor) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.UpdatedAt = now
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

func (r *metricRepo) Get(ctx context.Context, tx *gorm.DB, key string) (*domain.MetricDescriptor, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.MetricDescriptor
	if err := t.WithContext(ctx).Where("key = ?", key).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *metricRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.MetricDescriptor, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.MetricDescriptor
	if err := t.WithContext(ctx).Order("key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
