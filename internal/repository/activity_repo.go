package repository

import (
	"context"

	"docuhub/internal/model"

	"gorm.io/gorm"
)

// ActivityRepository appends and reads the audit trail. Entries are never
// mutated or deleted in normal operation.
type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, documentID string, page, limit int) ([]model.ActivityLog, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository returns a new instance of ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *activityRepository) List(ctx context.Context, documentID string, page, limit int) ([]model.ActivityLog, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.ActivityLog{})
	if documentID != "" {
		query = query.Where("document_id = ?", documentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.ActivityLog
	fetch := GetDB(ctx, r.db).Preload("User").Preload("Document")
	if documentID != "" {
		fetch = fetch.Where("document_id = ?", documentID)
	}
	if err := fetch.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
