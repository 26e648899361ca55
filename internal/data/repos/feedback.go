package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

// FeedbackRepo is append-only; rows are never updated or deleted.
type FeedbackRepo interface {
	Append(ctx context.Context, tx *gorm.DB, row *domain.FeedbackEvent) (uuid.UUID, error)
	ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*domain.FeedbackEvent, error)
	ListBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*domain.FeedbackEvent, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: baseLog.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Append(ctx context.Context, tx *gorm.DB, row *domain.FeedbackEvent) (uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := row.Validate(); err != nil {
		return uuid.Nil, err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (r *feedbackRepo) ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*domain.FeedbackEvent, error) {
	return r.ListBetween(ctx, tx, since, time.Time{})
}

func (r *feedbackRepo) ListBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*domain.FeedbackEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Where("created_at >= ?", from)
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var out []*domain.FeedbackEvent
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
