package repositories

import (
	"context"
	"fmt"
	"time"

	"escrow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type outboxRepository struct {
	db *gorm.DB
}

// Append inserts the event and signals OutboxChannel. NOTIFY is delivered
// only when the surrounding transaction commits.
func (r *outboxRepository) Append(ctx context.Context, ev *models.OutboxEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	if err := r.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", OutboxChannel, ev.EventID).Error; err != nil {
		return fmt.Errorf("failed to notify outbox channel: %w", err)
	}
	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("dispatched_at IS NULL AND attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkDispatched(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dispatched_at": at,
			"attempts":      gorm.Expr("attempts + 1"),
			"last_error":    "",
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event dispatched: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uint, reason string) error {
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}
