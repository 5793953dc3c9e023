// Package outbox records domain events inside the unit of work that produces
// them. Delivery happens after commit, in the notification dispatcher.
package outbox

import (
	"context"
	"errors"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories"

	"github.com/google/uuid"
)

// Kicker wakes the dispatcher after a unit that appended events commits.
type Kicker interface {
	Kick()
}

// NopKicker is used where no dispatcher runs in-process.
type NopKicker struct{}

func (NopKicker) Kick() {}

// Record appends an event carrying full snapshots of the transaction, the
// milestone (if any) and both parties.
func Record(ctx context.Context, r *repositories.Repositories, typ models.EventType, txn *models.EscrowTransaction, milestone *models.Milestone) (*models.OutboxEvent, error) {
	buyer, err := party(ctx, r, txn.BuyerID)
	if err != nil {
		return nil, err
	}
	seller, err := party(ctx, r, txn.SellerID)
	if err != nil {
		return nil, err
	}

	snapshot := *txn
	snapshot.Milestones = nil
	payload := models.EventPayload{
		Transaction: &snapshot,
		Buyer:       buyer,
		Seller:      seller,
	}
	if milestone != nil {
		m := *milestone
		payload.Milestone = &m
	}

	ev := &models.OutboxEvent{
		EventID: uuid.NewString(),
		Type:    typ,
		Payload: payload,
	}
	if err := r.Outbox.Append(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// party loads a user by optional id. A removed account yields nil.
func party(ctx context.Context, r *repositories.Repositories, id *uint) (*models.User, error) {
	if id == nil {
		return nil, nil
	}
	u, err := r.Users.GetByID(ctx, *id)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, nil
	}
	return u, err
}
