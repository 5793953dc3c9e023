package notification

import (
	"context"

	"escrow/internal/models"
	"escrow/internal/repositories"
)

// Service exposes a user's in-app notifications.
type Service interface {
	List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID uint) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type service struct {
	store repositories.Store
}

// NewService creates a new notification service.
func NewService(store repositories.Store) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store}
}

func (s *service) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.Repositories().Notifications.ListByRecipient(ctx, userID, limit, offset)
}

func (s *service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.Repositories().Notifications.UnreadCount(ctx, userID)
}

// MarkRead marks one of the user's notifications read. Other users'
// notifications are reported as not found.
func (s *service) MarkRead(ctx context.Context, notificationID, userID uint) (*models.Notification, error) {
	return s.store.Repositories().Notifications.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead returns the number of notifications changed; a repeated call
// returns 0.
func (s *service) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.Repositories().Notifications.MarkAllRead(ctx, userID)
}
