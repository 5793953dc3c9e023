package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"

	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Create(review).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrDuplicateReview
	}
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ExistsForReviewer(ctx context.Context, transactionID, reviewerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("transaction_id = ? AND reviewer_id = ?", transactionID, reviewerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return count > 0, nil
}

func (r *reviewRepository) ListByTransaction(ctx context.Context, transactionID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
