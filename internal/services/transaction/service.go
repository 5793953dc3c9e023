package transaction

import (
	"context"
	"strings"
	"time"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/services/funding"
	"escrow/internal/services/outbox"
	"escrow/internal/services/wallet"

	"github.com/sirupsen/logrus"
)

type service struct {
	store   repositories.Store
	wallets wallet.Service
	kicker  outbox.Kicker
	log     *logrus.Logger
	now     func() time.Time
}

// NewService creates a new transaction service
func NewService(store repositories.Store, wallets wallet.Service, kicker outbox.Kicker, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if log == nil {
		panic("logger is required")
	}
	if kicker == nil {
		kicker = outbox.NopKicker{}
	}
	return &service{store: store, wallets: wallets, kicker: kicker, log: log, now: time.Now}
}

// afterCommit drops cached balances of the given users and wakes the
// dispatcher. It never fails the operation.
func (s *service) afterCommit(ctx context.Context, userIDs ...uint) {
	s.wallets.Invalidate(ctx, userIDs...)
	s.kicker.Kick()
}

func validateCreate(buyerID uint, req *models.CreateTransactionRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return apperrors.ErrValidationFailed.WithMessage("title is required")
	}
	if req.SellerID == 0 {
		return apperrors.ErrValidationFailed.WithMessage("seller_id is required")
	}
	if req.SellerID == buyerID {
		return apperrors.ErrValidationFailed.WithMessage("buyer and seller must be different users")
	}
	if len(req.Milestones) == 0 {
		return apperrors.ErrValidationFailed.WithMessage("at least one milestone is required")
	}
	total := models.ZeroMoney()
	for i, m := range req.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			return apperrors.ErrValidationFailed.WithMessage("milestone %d: title is required", i+1)
		}
		if !m.Value.IsPositive() {
			return apperrors.ErrValidationFailed.WithMessage("milestone %d: value must be positive", i+1)
		}
		if !m.Value.Storable() {
			return apperrors.ErrValidationFailed.WithMessage("milestone %d: value exceeds %s", i+1, models.MaxMoney())
		}
		total = total.Add(m.Value)
	}
	if !total.Storable() {
		return apperrors.ErrValidationFailed.WithMessage("total value exceeds %s", models.MaxMoney())
	}
	return nil
}

// Create stores a new contract with its milestones. total_value is the sum of
// the milestone values and is not recomputed afterwards.
func (s *service) Create(ctx context.Context, buyerID uint, req models.CreateTransactionRequest) (*models.EscrowTransaction, error) {
	if err := validateCreate(buyerID, &req); err != nil {
		return nil, err
	}

	buyer, seller := buyerID, req.SellerID
	txn := &models.EscrowTransaction{
		Title:    req.Title,
		BuyerID:  &buyer,
		SellerID: &seller,
		Status:   models.StatusPendingFunding,
	}
	values := make([]models.Money, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		txn.Milestones = append(txn.Milestones, models.Milestone{
			Title:       strings.TrimSpace(m.Title),
			Description: m.Description,
			Value:       m.Value,
			Status:      models.MilestonePending,
		})
		values = append(values, m.Value)
	}
	txn.TotalValue = models.SumMoney(values...)

	err := s.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		if _, err := r.Users.GetByID(ctx, buyerID); err != nil {
			return err
		}
		if _, err := r.Users.GetByID(ctx, req.SellerID); err != nil {
			return err
		}
		return r.Escrows.Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"user_id":        buyerID,
		"total_value":    txn.TotalValue.String(),
	}).Info("escrow transaction created")
	return txn, nil
}

// Fund moves total_value from the buyer's wallet into escrow.
func (s *service) Fund(ctx context.Context, transactionID, actorID uint) (*models.EscrowTransaction, error) {
	err := s.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		txn, err := r.Escrows.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !txn.IsBuyer(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the buyer can fund this transaction")
		}
		_, err = funding.Apply(ctx, r, s.wallets.Metrics(), txn, actorID, txn.TotalValue, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, actorID)

	s.log.WithFields(logrus.Fields{"transaction_id": transactionID, "user_id": actorID}).Info("escrow transaction funded")
	return s.store.Repositories().Escrows.GetByID(ctx, transactionID)
}

// Accept records the seller's agreement; the contract then awaits payment.
func (s *service) Accept(ctx context.Context, transactionID, actorID uint) (*models.EscrowTransaction, error) {
	err := s.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		txn, err := r.Escrows.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !txn.IsSeller(actorID) {
			return apperrors.ErrForbidden.WithMessage("only the seller can accept this transaction")
		}
		if txn.Status != models.StatusPendingFunding {
			return apperrors.InvalidTransition(actionAccept, txn.Status)
		}
		if err := r.Escrows.UpdateStatus(ctx, txn.ID, models.StatusAwaitingPayment); err != nil {
			return err
		}
		txn.Status = models.StatusAwaitingPayment
		_, err = outbox.Record(ctx, r, models.EventTransactionAccepted, txn, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx)

	s.log.WithFields(logrus.Fields{"transaction_id": transactionID, "user_id": actorID}).Info("escrow transaction accepted")
	return s.store.Repositories().Escrows.GetByID(ctx, transactionID)
}

// Get returns a transaction visible to actorID. Non-parties get
// ErrTransactionNotFound so existence is not leaked.
func (s *service) Get(ctx context.Context, transactionID, actorID uint) (*models.EscrowTransaction, error) {
	txn, err := s.store.Repositories().Escrows.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !txn.IsParty(actorID) {
		return nil, apperrors.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, actorID uint, role models.PartyRole, limit, offset int) ([]models.EscrowTransaction, int64, error) {
	switch role {
	case "", models.RoleBuyer, models.RoleSeller:
	default:
		return nil, 0, apperrors.ErrValidationFailed.WithMessage("role must be buyer or seller")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Repositories().Escrows.ListByParty(ctx, role, actorID, limit, offset)
}

func (s *service) ListMilestones(ctx context.Context, transactionID, actorID uint) ([]models.Milestone, error) {
	if _, err := s.Get(ctx, transactionID, actorID); err != nil {
		return nil, err
	}
	return s.store.Repositories().Escrows.ListMilestones(ctx, transactionID)
}

func (s *service) ListPayments(ctx context.Context, transactionID, actorID uint) ([]models.PaymentRecord, error) {
	if _, err := s.Get(ctx, transactionID, actorID); err != nil {
		return nil, err
	}
	return s.store.Repositories().Payments.ListByTransaction(ctx, transactionID)
}
