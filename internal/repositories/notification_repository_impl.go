package repositories

import (
	"context"
	"fmt"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"

	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrNotificationNotFound)
	}
	if n.IsRead {
		return &n, nil
	}
	if err := r.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.IsRead = true
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
