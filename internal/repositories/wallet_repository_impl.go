package repositories

import (
	"context"
	"fmt"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, notFound(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

func (r *walletRepository) LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

func (r *walletRepository) EnsureLocked(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID, Balance: models.ZeroMoney()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&wallet).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return r.LockByUserID(ctx, userID)
}

func (r *walletRepository) UpdateBalance(ctx context.Context, walletID uint, balance models.Money) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", balance)
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWalletNotFound
	}
	return nil
}

func (r *walletRepository) GetEscrow(ctx context.Context) (*models.EscrowWallet, error) {
	var wallet models.EscrowWallet
	if err := r.db.WithContext(ctx).First(&wallet, models.EscrowWalletID).Error; err != nil {
		return nil, notFound(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

func (r *walletRepository) EnsureEscrowLocked(ctx context.Context) (*models.EscrowWallet, error) {
	seed := models.EscrowWallet{ID: models.EscrowWalletID, Balance: models.ZeroMoney()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&seed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert escrow wallet: %w", err)
	}

	var wallet models.EscrowWallet
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&wallet, models.EscrowWalletID).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateEscrowBalance(ctx context.Context, balance models.Money) error {
	err := r.db.WithContext(ctx).
		Model(&models.EscrowWallet{}).
		Where("id = ?", models.EscrowWalletID).
		Update("balance", balance).Error
	if err != nil {
		return fmt.Errorf("failed to update escrow balance: %w", err)
	}
	return nil
}
