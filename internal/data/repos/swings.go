// Package repos maps the persisted collections onto gorm. Every repo accepts
// an optional transaction handle; nil falls back to the shared connection.
package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type SwingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.SwingRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.SwingRecord, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*domain.SwingRecord, error)
}

type swingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSwingRepo(db *gorm.DB, baseLog *logger.Logger) SwingRepo {
	return &swingRepo{db: db, log: baseLog.With("repo", "SwingRepo")}
}

func (r *swingRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.SwingRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := row.Validate(); err != nil {
		return err
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *swingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.SwingRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*domain.SwingRecord
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *swingRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*domain.SwingRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.SwingRecord
	if userID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("captured_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
