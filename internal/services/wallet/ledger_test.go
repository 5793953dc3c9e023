package wallet

import (
	"context"
	"errors"
	"testing"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWallet(t *testing.T, store *memory.Store, userID uint, balance string) {
	t.Helper()
	err := store.ExecuteInTransaction(context.Background(), func(r *repositories.Repositories) error {
		_, err := NewLedger(r, nil).Credit(context.Background(), userID, models.MustMoney(balance))
		return err
	})
	require.NoError(t, err)
}

func TestLedger_CreditCreatesWalletLazily(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		w, err := NewLedger(r, nil).Credit(ctx, 1, models.MustMoney("25.50"))
		require.NoError(t, err)
		assert.Equal(t, "25.50", w.Balance.String())
		return nil
	})
	require.NoError(t, err)

	w, err := store.Repositories().Wallets.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "25.50", w.Balance.String())
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	for _, amount := range []string{"0", "-1.00"} {
		err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
			l := NewLedger(r, nil)
			_, err := l.Credit(ctx, 1, models.MustMoney(amount))
			assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
			_, err = l.Debit(ctx, 1, models.MustMoney(amount))
			assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
			_, err = l.CreditEscrow(ctx, models.MustMoney(amount))
			return err
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	}
}

func TestLedger_DebitInsufficientFunds(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedWallet(t, store, 1, "50.00")

	err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		_, err := NewLedger(r, nil).Debit(ctx, 1, models.MustMoney("100.00"))
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	de, ok := apperrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "100.00", de.Details["required"])
	assert.Equal(t, "50.00", de.Details["available"])

	w, err := store.Repositories().Wallets.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "50.00", w.Balance.String())
}

func TestLedger_CreditPastColumnLimit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedWallet(t, store, 1, "9999999999.00")

	err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		_, err := NewLedger(r, nil).Credit(ctx, 1, models.MustMoney("1.00"))
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrBalanceLimit)
	de, ok := apperrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "9999999999.99", de.Details["maximum"])

	err = store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		_, err := NewLedger(r, nil).Credit(ctx, 1, models.MustMoney("0.99"))
		return err
	})
	require.NoError(t, err)
	w, err := store.Repositories().Wallets.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "9999999999.99", w.Balance.String())
}

func TestLedger_EscrowRoundTripNetsToZero(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedWallet(t, store, 1, "100.00")

	err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		l := NewLedger(r, nil)
		if _, err := l.Debit(ctx, 1, models.MustMoney("40.00")); err != nil {
			return err
		}
		if _, err := l.CreditEscrow(ctx, models.MustMoney("40.00")); err != nil {
			return err
		}
		if _, err := l.DebitEscrow(ctx, models.MustMoney("40.00")); err != nil {
			return err
		}
		_, err := l.Credit(ctx, 2, models.MustMoney("40.00"))
		return err
	})
	require.NoError(t, err)

	repos := store.Repositories()
	buyer, _ := repos.Wallets.GetByUserID(ctx, 1)
	seller, _ := repos.Wallets.GetByUserID(ctx, 2)
	escrow, _ := repos.Wallets.GetEscrow(ctx)
	assert.Equal(t, "60.00", buyer.Balance.String())
	assert.Equal(t, "40.00", seller.Balance.String())
	assert.True(t, escrow.Balance.IsZero())
	assert.Equal(t, "100.00", models.SumMoney(buyer.Balance, seller.Balance, escrow.Balance).String())
}

func TestLedger_RollbackLeavesBalancesUntouched(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedWallet(t, store, 1, "100.00")

	boom := errors.New("boom")
	err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		if _, err := NewLedger(r, nil).Debit(ctx, 1, models.MustMoney("30.00")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := store.Repositories().Wallets.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "100.00", w.Balance.String())
}
