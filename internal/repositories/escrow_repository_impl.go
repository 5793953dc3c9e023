package repositories

import (
	"context"
	"fmt"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type escrowRepository struct {
	db *gorm.DB
}

func (r *escrowRepository) Create(ctx context.Context, txn *models.EscrowTransaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create escrow transaction: %w", err)
	}
	return nil
}

func (r *escrowRepository) GetByID(ctx context.Context, id uint) (*models.EscrowTransaction, error) {
	var txn models.EscrowTransaction
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&txn, id).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	return &txn, nil
}

func (r *escrowRepository) LockByID(ctx context.Context, id uint) (*models.EscrowTransaction, error) {
	var txn models.EscrowTransaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&txn, id).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	return &txn, nil
}

func (r *escrowRepository) UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.EscrowTransaction{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (r *escrowRepository) ListByParty(ctx context.Context, role models.PartyRole, userID uint, limit, offset int) ([]models.EscrowTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EscrowTransaction{})
	switch role {
	case models.RoleBuyer:
		query = query.Where("buyer_id = ?", userID)
	case models.RoleSeller:
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txns []models.EscrowTransaction
	err := query.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, total, nil
}

func (r *escrowRepository) GetMilestone(ctx context.Context, id uint) (*models.Milestone, error) {
	var m models.Milestone
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrMilestoneNotFound)
	}
	return &m, nil
}

func (r *escrowRepository) ListMilestones(ctx context.Context, transactionID uint) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

func (r *escrowRepository) LockMilestones(ctx context.Context, transactionID uint) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock milestones: %w", err)
	}
	return milestones, nil
}

func (r *escrowRepository) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	result := r.db.WithContext(ctx).
		Model(&models.Milestone{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"status":             m.Status,
			"submission_details": m.SubmissionDetails,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update milestone: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMilestoneNotFound
	}
	return nil
}
