// Package repositories provides the persistence contracts of the escrow core
// and their gorm/PostgreSQL implementation.
package repositories

import (
	"context"
	"time"

	"escrow/internal/models"
)

// WalletRepository is the ledger's view of wallet rows. Lock* methods take a
// row lock held until the surrounding unit of work ends.
type WalletRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	// EnsureLocked upserts a zero-balance wallet if absent, then locks it.
	EnsureLocked(ctx context.Context, userID uint) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, walletID uint, balance models.Money) error

	GetEscrow(ctx context.Context) (*models.EscrowWallet, error)
	EnsureEscrowLocked(ctx context.Context) (*models.EscrowWallet, error)
	UpdateEscrowBalance(ctx context.Context, balance models.Money) error
}

// EscrowRepository persists escrow transactions and their milestones.
type EscrowRepository interface {
	// Create inserts the transaction together with its milestones.
	Create(ctx context.Context, txn *models.EscrowTransaction) error
	// GetByID returns the transaction with milestones loaded.
	GetByID(ctx context.Context, id uint) (*models.EscrowTransaction, error)
	// LockByID locks the transaction row without loading milestones.
	LockByID(ctx context.Context, id uint) (*models.EscrowTransaction, error)
	UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) error
	ListByParty(ctx context.Context, role models.PartyRole, userID uint, limit, offset int) ([]models.EscrowTransaction, int64, error)

	GetMilestone(ctx context.Context, id uint) (*models.Milestone, error)
	ListMilestones(ctx context.Context, transactionID uint) ([]models.Milestone, error)
	// LockMilestones locks every milestone of a transaction, ordered by id.
	LockMilestones(ctx context.Context, transactionID uint) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, m *models.Milestone) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.PaymentRecord) error
	Complete(ctx context.Context, id uint, completedAt time.Time) error
	ListByTransaction(ctx context.Context, transactionID uint) ([]models.PaymentRecord, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	ExistsForReviewer(ctx context.Context, transactionID, reviewerID uint) (bool, error)
	ListByTransaction(ctx context.Context, transactionID uint) ([]models.Review, error)
}

type OutboxRepository interface {
	Append(ctx context.Context, ev *models.OutboxEvent) error
	// FetchPending locks up to limit undelivered events, skipping rows locked
	// by another dispatcher.
	FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, reason string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Repositories bundles the repositories bound to one connection or one unit
// of work.
type Repositories struct {
	Wallets       WalletRepository
	Escrows       EscrowRepository
	Payments      PaymentRepository
	Reviews       ReviewRepository
	Outbox        OutboxRepository
	Notifications NotificationRepository
	Users         UserRepository
}

// Store hands out repositories and runs atomic units of work. A unit either
// commits every write or none of them.
type Store interface {
	Repositories() *Repositories
	ExecuteInTransaction(ctx context.Context, fn func(r *Repositories) error) error
	Ping(ctx context.Context) error
}
