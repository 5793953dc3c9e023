package payment

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

// NewService creates a new payment service
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

// parseAmount validates the raw amount before any lock is taken.
func parseAmount(raw models.AmountInput) (models.Money, error) {
	amount, err := models.ParseMoney(strings.TrimSpace(string(raw)))
	if err != nil {
		return models.Money{}, apperrors.ErrInvalidAmount.WithMessage("invalid amount %q: %v", string(raw), err)
	}
	if !amount.IsPositive() {
		return models.Money{}, apperrors.ErrNonPositiveAmount
	}
	return amount, nil
}

// Ingest moves amount from the user's wallet into escrow for the transaction.
// Preconditions are checked in a fixed order so each failure is distinct; the
// transaction state is checked last, by the funding primitive.
func (s *service) Ingest(ctx context.Context, req models.IngestPaymentRequest) (*models.IngestPaymentResult, error) {
	if req.TransactionID == 0 || req.UserID == 0 || strings.TrimSpace(string(req.Amount)) == "" {
		return nil, apperrors.ErrMissingFields
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var result *models.IngestPaymentResult
	err = s.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		if _, err := r.Wallets.GetByUserID(ctx, req.UserID); err != nil {
			return err
		}

		txn, err := r.Escrows.LockByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}

		if !amount.Equal(txn.TotalValue) {
			return apperrors.ErrAmountMismatch.
				WithMessage("amount %s does not match transaction value %s", amount, txn.TotalValue).
				WithDetails(map[string]interface{}{
					"expected": txn.TotalValue.String(),
					"received": amount.String(),
				})
		}

		payer, err := r.Wallets.LockByUserID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if payer.Balance.LessThan(amount) {
			return wallet.Insufficient(apperrors.ErrInsufficientBalance, amount, payer.Balance)
		}

		res, err := funding.Apply(ctx, r, s.wallets.Metrics(), txn, req.UserID, amount, s.now())
		if err != nil {
			return err
		}

		result = &models.IngestPaymentResult{
			PaymentTransactionID:    res.Payment.ID,
			EscrowTransactionStatus: txn.Status,
			UserWalletBalance:       res.PayerWallet.Balance,
			EscrowWalletBalance:     res.EscrowWallet.Balance,
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"transaction_id": req.TransactionID,
			"user_id":        req.UserID,
		}).Warn("payment ingestion rejected")
		return nil, err
	}

	s.wallets.Invalidate(ctx, req.UserID)
	s.kicker.Kick()

	s.log.WithFields(logrus.Fields{
		"transaction_id": req.TransactionID,
		"user_id":        req.UserID,
		"payment_id":     result.PaymentTransactionID,
		"amount":         amount.String(),
	}).Info("payment ingested into escrow")
	return result, nil
}
