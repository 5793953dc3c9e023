package transaction

import (
	"context"

	"escrow/internal/models"
)

// Service is the escrow transaction state machine. Every mutating method runs
// as one unit of work that locks the transaction row, then its milestones,
// then wallets, with the escrow wallet last.
type Service interface {
	Create(ctx context.Context, buyerID uint, req models.CreateTransactionRequest) (*models.EscrowTransaction, error)
	Fund(ctx context.Context, transactionID, actorID uint) (*models.EscrowTransaction, error)
	Accept(ctx context.Context, transactionID, actorID uint) (*models.EscrowTransaction, error)

	Submit(ctx context.Context, milestoneID, actorID uint, details string) (*models.Milestone, error)
	Approve(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error)
	RequestRevision(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error)
	Dispute(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error)

	Get(ctx context.Context, transactionID, actorID uint) (*models.EscrowTransaction, error)
	List(ctx context.Context, actorID uint, role models.PartyRole, limit, offset int) ([]models.EscrowTransaction, int64, error)
	ListMilestones(ctx context.Context, transactionID, actorID uint) ([]models.Milestone, error)
	ListPayments(ctx context.Context, transactionID, actorID uint) ([]models.PaymentRecord, error)
}
