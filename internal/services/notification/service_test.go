package notification

import (
	"context"
	"testing"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotifications(t *testing.T, store *memory.Store, recipient uint, n int) []uint {
	t.Helper()
	var ids []uint
	for i := 0; i < n; i++ {
		note := &models.Notification{RecipientID: recipient, Type: models.NotificationWorkSubmitted, Message: "m"}
		require.NoError(t, store.Repositories().Notifications.Create(context.Background(), note))
		ids = append(ids, note.ID)
	}
	return ids
}

func TestService_MarkAllReadIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	seedNotifications(t, store, 1, 3)
	seedNotifications(t, store, 2, 1)

	updated, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	updated, err = svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, updated)

	count, err := svc.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "other users are untouched")
}

func TestService_MarkRead(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	ids := seedNotifications(t, store, 1, 2)

	n, err := svc.MarkRead(ctx, ids[0], 1)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	_, err = svc.MarkRead(ctx, ids[1], 2)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	count, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_ListNewestFirst(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store)
	ids := seedNotifications(t, store, 1, 3)

	notes, total, err := svc.List(context.Background(), 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, notes, 2)
	assert.Equal(t, ids[2], notes[0].ID)
	assert.Equal(t, ids[1], notes[1].ID)
}
