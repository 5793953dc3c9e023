package repositories

import (
	"context"
	"testing"
	"time"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	}
}

func TestWalletRepository_LockByUserID(t *testing.T) {
	testCases := []struct {
		name      string
		mockSetup func(mock sqlmock.Sqlmock)
		assertFn  func(t *testing.T, w *models.Wallet, err error)
	}{
		{
			name: "Success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "user_id", "balance"}).AddRow(3, 7, "250.00")
				mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = .* FOR UPDATE`).WillReturnRows(rows)
			},
			assertFn: func(t *testing.T, w *models.Wallet, err error) {
				require.NoError(t, err)
				assert.Equal(t, uint(3), w.ID)
				assert.Equal(t, "250.00", w.Balance.String())
			},
		},
		{
			name: "Not Found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = .* FOR UPDATE`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance"}))
			},
			assertFn: func(t *testing.T, w *models.Wallet, err error) {
				assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
				assert.Nil(t, w)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, cleanup := setupMockDB(t)
			defer cleanup()
			tc.mockSetup(mock)

			repo := &walletRepository{db: db}
			w, err := repo.LockByUserID(context.Background(), 7)
			tc.assertFn(t, w, err)
		})
	}
}

func TestWalletRepository_EnsureLocked_UpsertsThenLocks(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO "wallets" .* ON CONFLICT \("user_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance"}).AddRow(9, 7, "0.00"))

	repo := &walletRepository{db: db}
	w, err := repo.EnsureLocked(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(9), w.ID)
	assert.True(t, w.Balance.IsZero())
}

func TestWalletRepository_EnsureEscrowLocked(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO "escrow_wallets" .* ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "escrow_wallets" WHERE "escrow_wallets"."id" = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, "500.00"))

	repo := &walletRepository{db: db}
	e, err := repo.EnsureEscrowLocked(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EscrowWalletID, e.ID)
	assert.Equal(t, "500.00", e.Balance.String())
}

func TestWalletRepository_GetEscrow(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "escrow_wallets" WHERE "escrow_wallets"."id" = .*LIMIT`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, "125.50"))

		repo := &walletRepository{db: db}
		e, err := repo.GetEscrow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "125.50", e.Balance.String())
	})

	t.Run("Not Seeded", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "escrow_wallets"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}))

		repo := &walletRepository{db: db}
		_, err := repo.GetEscrow(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
	})
}

func TestEscrowRepository_UpdateStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE "escrow_transactions" SET "status"=.*WHERE id = `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := &escrowRepository{db: db}
		assert.NoError(t, repo.UpdateStatus(context.Background(), 4, models.StatusInEscrow))
	})

	t.Run("Missing Row", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE "escrow_transactions" SET "status"=.*WHERE id = `).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := &escrowRepository{db: db}
		assert.ErrorIs(t, repo.UpdateStatus(context.Background(), 4, models.StatusInEscrow), apperrors.ErrTransactionNotFound)
	})
}

func TestEscrowRepository_LockMilestones_OrdersByID(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "transaction_id", "title", "value", "status"}).
		AddRow(1, 4, "design", "50.00", "COMPLETED").
		AddRow(2, 4, "build", "50.00", "AWAITING_REVIEW")
	mock.ExpectQuery(`SELECT \* FROM "milestones" WHERE transaction_id = .* ORDER BY id ASC FOR UPDATE`).
		WillReturnRows(rows)

	repo := &escrowRepository{db: db}
	ms, err := repo.LockMilestones(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, models.MilestoneCompleted, ms[0].Status)
	assert.Equal(t, models.MilestoneAwaitingReview, ms[1].Status)
}

func TestEscrowRepository_ListMilestones_NoLock(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "transaction_id", "title", "value", "status"}).
		AddRow(1, 4, "design", "50.00", "PENDING")
	mock.ExpectQuery(`SELECT \* FROM "milestones" WHERE transaction_id = \$1 ORDER BY id ASC$`).
		WillReturnRows(rows)

	repo := &escrowRepository{db: db}
	ms, err := repo.ListMilestones(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "50.00", ms[0].Value.String())
}

func TestOutboxRepository_FetchPending_SkipsLockedRows(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "event_id", "type", "payload", "attempts"}).
		AddRow(1, "e-1", "transaction_funded", []byte(`{"transaction":{"id":4}}`), 0)
	mock.ExpectQuery(`SELECT \* FROM "outbox_events" WHERE dispatched_at IS NULL AND attempts < .* FOR UPDATE SKIP LOCKED`).
		WillReturnRows(rows)

	repo := &outboxRepository{db: db}
	events, err := repo.FetchPending(context.Background(), 10, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTransactionFunded, events[0].Type)
	require.NotNil(t, events[0].Payload.Transaction)
	assert.Equal(t, uint(4), events[0].Payload.Transaction.ID)
}

func TestOutboxRepository_Append_Notifies(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO "outbox_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(`SELECT pg_notify`).
		WithArgs(OutboxChannel, "e-11").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &outboxRepository{db: db}
	ev := &models.OutboxEvent{EventID: "e-11", Type: models.EventMilestoneApproved, CreatedAt: time.Now()}
	require.NoError(t, repo.Append(context.Background(), ev))
	assert.Equal(t, uint(11), ev.ID)
}

func TestReviewRepository_Create_DuplicateKey(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO "reviews"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	reviewer := uint(2)
	repo := &reviewRepository{db: db}
	err := repo.Create(context.Background(), &models.Review{TransactionID: 4, ReviewerID: &reviewer, Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReview)
}

func TestNotificationRepository_MarkAllRead_ReturnsAffectedRows(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=.*WHERE recipient_id = .* AND is_read = `).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=.*WHERE recipient_id = .* AND is_read = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &notificationRepository{db: db}
	n, err := repo.MarkAllRead(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.MarkAllRead(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
