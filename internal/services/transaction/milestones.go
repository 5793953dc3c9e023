package transaction

import (
	"context"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/services/outbox"
	"escrow/internal/services/wallet"

	"github.com/sirupsen/logrus"
)

// milestoneUnit is the locked state a milestone transition works on.
type milestoneUnit struct {
	r         *repositories.Repositories
	txn       *models.EscrowTransaction
	milestone *models.Milestone
	siblings  []models.Milestone
}

// withMilestone runs fn in a unit of work holding the parent transaction lock
// and the locks on all of its milestones, ordered by id.
func (s *service) withMilestone(ctx context.Context, milestoneID uint, fn func(u *milestoneUnit) error) (*models.Milestone, error) {
	var result *models.Milestone
	err := s.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		ref, err := r.Escrows.GetMilestone(ctx, milestoneID)
		if err != nil {
			return err
		}
		txn, err := r.Escrows.LockByID(ctx, ref.TransactionID)
		if err != nil {
			return err
		}
		siblings, err := r.Escrows.LockMilestones(ctx, txn.ID)
		if err != nil {
			return err
		}

		u := &milestoneUnit{r: r, txn: txn, siblings: siblings}
		for i := range siblings {
			if siblings[i].ID == milestoneID {
				u.milestone = &siblings[i]
			}
		}
		if u.milestone == nil {
			return apperrors.ErrMilestoneNotFound
		}

		if err := fn(u); err != nil {
			return err
		}
		result = u.milestone
		return nil
	})
	return result, err
}

func (s *service) logTransition(action string, m *models.Milestone, actorID uint) {
	s.log.WithFields(logrus.Fields{
		"transaction_id": m.TransactionID,
		"milestone_id":   m.ID,
		"user_id":        actorID,
		"status":         m.Status,
	}).Infof("milestone %s", action)
}

// Submit stores the seller's work and puts the milestone up for review. The
// first submission moves an IN_ESCROW transaction to WORK_IN_PROGRESS.
func (s *service) Submit(ctx context.Context, milestoneID, actorID uint, details string) (*models.Milestone, error) {
	m, err := s.withMilestone(ctx, milestoneID, func(u *milestoneUnit) error {
		if !u.txn.IsSeller(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the seller can submit work")
		}
		if !u.txn.Status.Funded() {
			return apperrors.InvalidTransition(actionSubmit, u.txn.Status)
		}
		if !u.milestone.Submittable() {
			return apperrors.InvalidTransition(actionSubmit, u.milestone.Status)
		}

		u.milestone.Status = models.MilestoneAwaitingReview
		u.milestone.SubmissionDetails = details
		if err := u.r.Escrows.UpdateMilestone(ctx, u.milestone); err != nil {
			return err
		}

		if u.txn.Status == models.StatusInEscrow {
			if err := u.r.Escrows.UpdateStatus(ctx, u.txn.ID, models.StatusWorkInProgress); err != nil {
				return err
			}
			u.txn.Status = models.StatusWorkInProgress
		}

		_, err := outbox.Record(ctx, u.r, models.EventWorkSubmitted, u.txn, u.milestone)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx)
	s.logTransition("submitted", m, actorID)
	return m, nil
}

// Approve completes the milestone and releases its value from escrow to the
// seller. The all-milestones-completed check runs under the same locks, so
// concurrent approvals of sibling milestones cannot both miss completion.
func (s *service) Approve(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error) {
	var sellerID uint
	m, err := s.withMilestone(ctx, milestoneID, func(u *milestoneUnit) error {
		if !u.txn.IsBuyer(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the buyer can approve milestones")
		}
		if !u.txn.Status.Funded() {
			return apperrors.InvalidTransition(actionApprove, u.txn.Status)
		}
		if u.milestone.Status != models.MilestoneAwaitingReview {
			return apperrors.InvalidTransition(actionApprove, u.milestone.Status)
		}
		if u.txn.SellerID == nil {
			return apperrors.ErrUserNotFound.WithMessage("seller account no longer exists")
		}
		sellerID = *u.txn.SellerID

		u.milestone.Status = models.MilestoneCompleted
		if err := u.r.Escrows.UpdateMilestone(ctx, u.milestone); err != nil {
			return err
		}

		ledger := wallet.NewLedger(u.r, s.wallets.Metrics())
		if _, err := ledger.Credit(ctx, sellerID, u.milestone.Value); err != nil {
			return err
		}
		if _, err := ledger.DebitEscrow(ctx, u.milestone.Value); err != nil {
			return err
		}

		if _, err := outbox.Record(ctx, u.r, models.EventMilestoneApproved, u.txn, u.milestone); err != nil {
			return err
		}

		for _, sibling := range u.siblings {
			if sibling.Status != models.MilestoneCompleted {
				return nil
			}
		}
		if err := u.r.Escrows.UpdateStatus(ctx, u.txn.ID, models.StatusCompleted); err != nil {
			return err
		}
		u.txn.Status = models.StatusCompleted
		_, err := outbox.Record(ctx, u.r, models.EventTransactionCompleted, u.txn, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, sellerID)
	s.logTransition("approved", m, actorID)
	return m, nil
}

// RequestRevision sends a submitted milestone back to the seller.
func (s *service) RequestRevision(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error) {
	m, err := s.withMilestone(ctx, milestoneID, func(u *milestoneUnit) error {
		if !u.txn.IsBuyer(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the buyer can request a revision")
		}
		if !u.txn.Status.Funded() {
			return apperrors.InvalidTransition(actionRequestRevision, u.txn.Status)
		}
		if u.milestone.Status != models.MilestoneAwaitingReview {
			return apperrors.InvalidTransition(actionRequestRevision, u.milestone.Status)
		}

		u.milestone.Status = models.MilestoneRevisionRequested
		if err := u.r.Escrows.UpdateMilestone(ctx, u.milestone); err != nil {
			return err
		}
		_, err := outbox.Record(ctx, u.r, models.EventRevisionRequested, u.txn, u.milestone)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx)
	s.logTransition("revision requested", m, actorID)
	return m, nil
}

// Dispute flags the milestone and its transaction for human mediation. No
// funds move.
func (s *service) Dispute(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error) {
	m, err := s.withMilestone(ctx, milestoneID, func(u *milestoneUnit) error {
		if !u.txn.IsBuyer(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the buyer can dispute a milestone")
		}
		if !u.milestone.Disputable() {
			return apperrors.InvalidTransition(actionDispute, u.milestone.Status)
		}

		u.milestone.Status = models.MilestoneDisputed
		if err := u.r.Escrows.UpdateMilestone(ctx, u.milestone); err != nil {
			return err
		}
		if u.txn.Status != models.StatusDisputed {
			if err := u.r.Escrows.UpdateStatus(ctx, u.txn.ID, models.StatusDisputed); err != nil {
				return err
			}
			u.txn.Status = models.StatusDisputed
		}
		_, err := outbox.Record(ctx, u.r, models.EventMilestoneDisputed, u.txn, u.milestone)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx)
	s.logTransition("disputed", m, actorID)
	s.log.WithField("milestone_id", m.ID).Warn("milestone disputed, mediation required")
	return m, nil
}
