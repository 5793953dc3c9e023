package payment

import (
	"context"
	"testing"

	apperrors "escrow/internal/errors"
	"escrow/internal/logger"
	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/repositories/memory"
	"escrow/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setup struct {
	ctx    context.Context
	store  *memory.Store
	svc    Service
	buyer  uint
	seller uint
	txn    *models.EscrowTransaction
}

func newSetup(t *testing.T, buyerBalance, totalValue string) *setup {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	log := logger.Discard()

	s := &setup{ctx: ctx, store: store}
	s.svc = NewService(store, wallet.NewService(store, nil, nil, log), nil, log)

	repos := store.Repositories()
	buyer := &models.User{Email: "buyer@example.com", Name: "Buyer"}
	seller := &models.User{Email: "seller@example.com", Name: "Seller"}
	require.NoError(t, repos.Users.Create(ctx, buyer))
	require.NoError(t, repos.Users.Create(ctx, seller))
	s.buyer, s.seller = buyer.ID, seller.ID

	s.txn = &models.EscrowTransaction{
		Title:      "Website",
		TotalValue: models.MustMoney(totalValue),
		BuyerID:    &s.buyer,
		SellerID:   &s.seller,
		Status:     models.StatusPendingFunding,
		Milestones: []models.Milestone{{Title: "all", Value: models.MustMoney(totalValue)}},
	}
	err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		if err := r.Escrows.Create(ctx, s.txn); err != nil {
			return err
		}
		if buyerBalance == "" {
			return nil
		}
		_, err := wallet.NewLedger(r, nil).Credit(ctx, s.buyer, models.MustMoney(buyerBalance))
		return err
	})
	require.NoError(t, err)
	return s
}

func (s *setup) balance(t *testing.T, userID uint) string {
	w, err := s.store.Repositories().Wallets.GetByUserID(s.ctx, userID)
	require.NoError(t, err)
	return w.Balance.String()
}

func (s *setup) status(t *testing.T) models.TransactionStatus {
	txn, err := s.store.Repositories().Escrows.GetByID(s.ctx, s.txn.ID)
	require.NoError(t, err)
	return txn.Status
}

func TestIngest_Success(t *testing.T) {
	s := newSetup(t, "1000.00", "500.00")

	res, err := s.svc.Ingest(s.ctx, models.IngestPaymentRequest{
		TransactionID: s.txn.ID,
		UserID:        s.buyer,
		Amount:        "500.00",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusInEscrow, res.EscrowTransactionStatus)
	assert.Equal(t, "500.00", res.UserWalletBalance.String())
	assert.Equal(t, "500.00", res.EscrowWalletBalance.String())
	assert.Equal(t, "500.00", s.balance(t, s.buyer))
	assert.Equal(t, models.StatusInEscrow, s.status(t))

	records, err := s.store.Repositories().Payments.ListByTransaction(s.ctx, s.txn.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, res.PaymentTransactionID, records[0].ID)
	assert.Equal(t, models.PaymentCompleted, records[0].Status)
	assert.NotNil(t, records[0].CompletedAt)
	assert.Equal(t, models.EscrowWalletID, records[0].EscrowWalletID)
}

func TestIngest_AmountMismatchMutatesNothing(t *testing.T) {
	s := newSetup(t, "1000.00", "500.00")

	_, err := s.svc.Ingest(s.ctx, models.IngestPaymentRequest{
		TransactionID: s.txn.ID,
		UserID:        s.buyer,
		Amount:        "300.00",
	})
	require.ErrorIs(t, err, apperrors.ErrAmountMismatch)

	assert.Equal(t, "1000.00", s.balance(t, s.buyer))
	assert.Equal(t, models.StatusPendingFunding, s.status(t))
	_, err = s.store.Repositories().Wallets.GetEscrow(s.ctx)
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
}

func TestIngest_PreconditionOrder(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		req     func(s *setup) models.IngestPaymentRequest
		wantErr *apperrors.DomainError
	}{
		{
			name:    "missing amount",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer}
			},
			wantErr: apperrors.ErrMissingFields,
		},
		{
			name:    "missing everything but amount",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{Amount: "abc"}
			},
			wantErr: apperrors.ErrMissingFields,
		},
		{
			name:    "malformed amount",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: 999, UserID: 999, Amount: "12,50"}
			},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "too many decimals",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer, Amount: "500.001"}
			},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "amount over column limit",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer, Amount: "10000000000.00"}
			},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "zero amount",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: 999, UserID: 999, Amount: "0.00"}
			},
			wantErr: apperrors.ErrNonPositiveAmount,
		},
		{
			name:    "wallet checked before transaction",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: 999, UserID: s.seller, Amount: "500.00"}
			},
			wantErr: apperrors.ErrWalletNotFound,
		},
		{
			name:    "unknown transaction",
			balance: "1000.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: 999, UserID: s.buyer, Amount: "1.00"}
			},
			wantErr: apperrors.ErrTransactionNotFound,
		},
		{
			name:    "mismatch checked before balance",
			balance: "10.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer, Amount: "499.99"}
			},
			wantErr: apperrors.ErrAmountMismatch,
		},
		{
			name:    "insufficient balance",
			balance: "10.00",
			req: func(s *setup) models.IngestPaymentRequest {
				return models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer, Amount: "500.00"}
			},
			wantErr: apperrors.ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSetup(t, tt.balance, "500.00")
			_, err := s.svc.Ingest(s.ctx, tt.req(s))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, models.StatusPendingFunding, s.status(t))
		})
	}
}

func TestIngest_RejectsSecondPayment(t *testing.T) {
	s := newSetup(t, "1000.00", "500.00")
	req := models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer, Amount: "500.00"}

	_, err := s.svc.Ingest(s.ctx, req)
	require.NoError(t, err)

	_, err = s.svc.Ingest(s.ctx, req)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, "500.00", s.balance(t, s.buyer))
}

func TestIngest_InsufficientBalanceCarriesAmounts(t *testing.T) {
	s := newSetup(t, "10.00", "500.00")

	_, err := s.svc.Ingest(s.ctx, models.IngestPaymentRequest{TransactionID: s.txn.ID, UserID: s.buyer, Amount: "500"})
	de, ok := apperrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_BALANCE", de.Code)
	assert.Equal(t, "500.00", de.Details["required"])
	assert.Equal(t, "10.00", de.Details["available"])
}
