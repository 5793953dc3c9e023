// Package review gates post-completion reviews: one per party per transaction.
package review

import (
	"context"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"

	"github.com/sirupsen/logrus"
)

type Service interface {
	LeaveReview(ctx context.Context, transactionID, actorID uint, req models.LeaveReviewRequest) (*models.Review, error)
	ListReviews(ctx context.Context, transactionID, actorID uint) ([]models.Review, error)
}

type service struct {
	store repositories.Store
	log   *logrus.Logger
}

// NewService creates a new review service
func NewService(store repositories.Store, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if log == nil {
		panic("logger is required")
	}
	return &service{store: store, log: log}
}

// LeaveReview records the actor's review and closes the transaction.
// Checks run in order: party, status, rating, duplicate.
func (s *service) LeaveReview(ctx context.Context, transactionID, actorID uint, req models.LeaveReviewRequest) (*models.Review, error) {
	var review *models.Review
	err := s.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		txn, err := r.Escrows.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !txn.IsParty(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the buyer or seller can review this transaction")
		}
		if !txn.Status.Reviewable() {
			return apperrors.ErrNotCompletedYet.WithDetails(map[string]interface{}{"current_status": txn.Status})
		}
		if req.Rating < models.MinRating || req.Rating > models.MaxRating {
			return apperrors.ErrInvalidRating
		}

		exists, err := r.Reviews.ExistsForReviewer(ctx, transactionID, actorID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateReview
		}

		reviewer := actorID
		review = &models.Review{
			TransactionID: transactionID,
			ReviewerID:    &reviewer,
			Rating:        req.Rating,
			Comment:       req.Comment,
		}
		if err := r.Reviews.Create(ctx, review); err != nil {
			return err
		}

		if txn.Status != models.StatusClosed {
			return r.Escrows.UpdateStatus(ctx, transactionID, models.StatusClosed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"user_id":        actorID,
		"rating":         req.Rating,
	}).Info("review recorded")
	return review, nil
}

// ListReviews returns the reviews of a transaction visible to actorID.
func (s *service) ListReviews(ctx context.Context, transactionID, actorID uint) ([]models.Review, error) {
	repos := s.store.Repositories()
	txn, err := repos.Escrows.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !txn.IsParty(actorID) {
		return nil, apperrors.ErrTransactionNotFound
	}
	return repos.Reviews.ListByTransaction(ctx, transactionID)
}
