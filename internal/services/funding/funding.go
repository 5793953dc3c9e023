// Package funding moves a transaction's value from a payer wallet into escrow.
// It is the single funding primitive behind both the buyer's fund action and
// the payment webhook.
package funding

import (
	"context"
	"time"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/services/outbox"
	"escrow/internal/services/wallet"

	"github.com/google/uuid"
)

// Result describes a completed funding.
type Result struct {
	Payment      *models.PaymentRecord
	PayerWallet  *models.Wallet
	EscrowWallet *models.EscrowWallet
}

// Apply funds txn from payerID's wallet. It must run inside a unit of work
// that already holds the lock on txn. Steps, all or nothing: record a PENDING
// payment, debit the payer, credit escrow, complete the payment, move txn to
// IN_ESCROW and append transaction_funded.
func Apply(ctx context.Context, r *repositories.Repositories, metrics wallet.MetricsCollector, txn *models.EscrowTransaction, payerID uint, amount models.Money, now time.Time) (*Result, error) {
	if !txn.Status.Fundable() {
		return nil, apperrors.InvalidTransition("fund", txn.Status)
	}

	ledger := wallet.NewLedger(r, metrics)
	payer, err := ledger.Lock(ctx, payerID)
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		Reference:           uuid.NewString(),
		EscrowTransactionID: txn.ID,
		UserWalletID:        payer.ID,
		EscrowWalletID:      models.EscrowWalletID,
		Amount:              amount,
		Status:              models.PaymentPending,
	}
	if err := r.Payments.Create(ctx, record); err != nil {
		return nil, err
	}

	payer, err = ledger.DebitLocked(ctx, payer, amount)
	if err != nil {
		return nil, err
	}
	escrow, err := ledger.CreditEscrow(ctx, amount)
	if err != nil {
		return nil, err
	}

	if err := r.Payments.Complete(ctx, record.ID, now); err != nil {
		return nil, err
	}
	record.Status = models.PaymentCompleted
	record.CompletedAt = &now

	if err := r.Escrows.UpdateStatus(ctx, txn.ID, models.StatusInEscrow); err != nil {
		return nil, err
	}
	txn.Status = models.StatusInEscrow

	if _, err := outbox.Record(ctx, r, models.EventTransactionFunded, txn, nil); err != nil {
		return nil, err
	}

	return &Result{Payment: record, PayerWallet: payer, EscrowWallet: escrow}, nil
}
