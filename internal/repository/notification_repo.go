package repository

import (
	"context"

	"docuhub/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for data access of Notification entities
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	Update(ctx context.Context, notification *model.Notification) error
	DeleteRead(ctx context.Context, recipientID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new instance of NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return GetDB(ctx, r.db).Create(notification).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var notification model.Notification
	if err := GetDB(ctx, r.db).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]model.Notification, int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	if err := GetDB(ctx, r.db).
		Preload("Sender").
		Preload("Document").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).Count(&count).Error
	return count, err
}

func (r *notificationRepository) Update(ctx context.Context, notification *model.Notification) error {
	return GetDB(ctx, r.db).Save(notification).Error
}

func (r *notificationRepository) DeleteRead(ctx context.Context, recipientID string) error {
	return GetDB(ctx, r.db).
		Where("recipient_id = ? AND is_read = true", recipientID).
		Delete(&model.Notification{}).Error
}
