package wallet

import (
	"context"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"
)

// Ledger mutates balances inside a unit of work. Every method locks the row it
// changes; the lock is released when the unit commits or rolls back.
type Ledger struct {
	wallets repositories.WalletRepository
	metrics MetricsCollector
}

// NewLedger binds a ledger to the repositories of one unit of work.
func NewLedger(r *repositories.Repositories, metrics MetricsCollector) *Ledger {
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &Ledger{wallets: r.Wallets, metrics: metrics}
}

func validAmount(amount models.Money) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount.WithMessage("amount must be strictly positive, got %s", amount)
	}
	return nil
}

// Lock returns the user's wallet locked for update, creating it at zero
// balance if absent.
func (l *Ledger) Lock(ctx context.Context, userID uint) (*models.Wallet, error) {
	return l.wallets.EnsureLocked(ctx, userID)
}

// Credit adds amount to the user's wallet.
func (l *Ledger) Credit(ctx context.Context, userID uint, amount models.Money) (*models.Wallet, error) {
	if err := validAmount(amount); err != nil {
		l.metrics.RecordError("credit", "invalid_amount")
		return nil, err
	}
	w, err := l.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance := w.Balance.Add(amount)
	if !balance.Storable() {
		l.metrics.RecordError("credit", "balance_limit")
		return nil, overLimit(amount, w.Balance)
	}
	return l.apply(ctx, w, balance)
}

// Debit removes amount from the user's wallet, failing with
// ErrInsufficientFunds when the balance does not cover it.
func (l *Ledger) Debit(ctx context.Context, userID uint, amount models.Money) (*models.Wallet, error) {
	if err := validAmount(amount); err != nil {
		l.metrics.RecordError("debit", "invalid_amount")
		return nil, err
	}
	w, err := l.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.DebitLocked(ctx, w, amount)
}

// DebitLocked debits a wallet the caller already holds via Lock.
func (l *Ledger) DebitLocked(ctx context.Context, w *models.Wallet, amount models.Money) (*models.Wallet, error) {
	if err := validAmount(amount); err != nil {
		l.metrics.RecordError("debit", "invalid_amount")
		return nil, err
	}
	if w.Balance.LessThan(amount) {
		l.metrics.RecordError("debit", "insufficient_funds")
		return nil, Insufficient(apperrors.ErrInsufficientFunds, amount, w.Balance)
	}
	return l.apply(ctx, w, w.Balance.Sub(amount))
}

func (l *Ledger) apply(ctx context.Context, w *models.Wallet, balance models.Money) (*models.Wallet, error) {
	if err := l.wallets.UpdateBalance(ctx, w.ID, balance); err != nil {
		return nil, err
	}
	l.metrics.RecordBalanceChange(w.ID, w.Balance, balance)
	updated := *w
	updated.Balance = balance
	return &updated, nil
}

// CreditEscrow adds amount to the escrow singleton, creating it if absent.
func (l *Ledger) CreditEscrow(ctx context.Context, amount models.Money) (*models.EscrowWallet, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	e, err := l.wallets.EnsureEscrowLocked(ctx)
	if err != nil {
		return nil, err
	}
	balance := e.Balance.Add(amount)
	if !balance.Storable() {
		l.metrics.RecordError("credit_escrow", "balance_limit")
		return nil, overLimit(amount, e.Balance)
	}
	return l.applyEscrow(ctx, e, balance)
}

// DebitEscrow releases amount from the escrow singleton.
func (l *Ledger) DebitEscrow(ctx context.Context, amount models.Money) (*models.EscrowWallet, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	e, err := l.wallets.EnsureEscrowLocked(ctx)
	if err != nil {
		return nil, err
	}
	if e.Balance.LessThan(amount) {
		l.metrics.RecordError("debit_escrow", "insufficient_funds")
		return nil, Insufficient(apperrors.ErrInsufficientFunds, amount, e.Balance)
	}
	return l.applyEscrow(ctx, e, e.Balance.Sub(amount))
}

func (l *Ledger) applyEscrow(ctx context.Context, e *models.EscrowWallet, balance models.Money) (*models.EscrowWallet, error) {
	if err := l.wallets.UpdateEscrowBalance(ctx, balance); err != nil {
		return nil, err
	}
	l.metrics.RecordBalanceChange(e.ID, e.Balance, balance)
	updated := *e
	updated.Balance = balance
	return &updated, nil
}

func overLimit(amount, balance models.Money) *apperrors.DomainError {
	return apperrors.ErrBalanceLimit.WithDetails(map[string]interface{}{
		"amount":  amount.String(),
		"balance": balance.String(),
		"maximum": models.MaxMoney().String(),
	})
}

// Insufficient builds an insufficiency error carrying required and available amounts.
func Insufficient(base *apperrors.DomainError, required, available models.Money) *apperrors.DomainError {
	return base.
		WithMessage("%s: required %s, available %s", base.Message, required, available).
		WithDetails(map[string]interface{}{
			"required":  required.String(),
			"available": available.String(),
		})
}
