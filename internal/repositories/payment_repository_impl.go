package repositories

import (
	"context"
	"fmt"
	"time"

	"escrow/internal/models"

	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

func (r *paymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

func (r *paymentRepository) Complete(ctx context.Context, id uint, completedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.PaymentCompleted,
			"completed_at": completedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to complete payment record: %w", err)
	}
	return nil
}

func (r *paymentRepository) ListByTransaction(ctx context.Context, transactionID uint) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("escrow_transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	return records, nil
}
