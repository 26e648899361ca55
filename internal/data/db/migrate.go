package db

import (
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/domain"
)

// Migrate creates or updates all tables.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&domain.SwingRecord{},
		&domain.FeedbackEvent{},
		&domain.MetricDescriptor{},
		&domain.ReferenceRubric{},
		&domain.SystemDocument{},
	)
}
