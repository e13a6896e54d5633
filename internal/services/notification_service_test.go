package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/models"
)

func TestNotificationListAndToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, stranger := f.user(t, "owner"), f.user(t, "stranger")

	base := time.Now().Add(-time.Hour)
	rows := []models.Notification{
		{UserID: owner.ID, Title: "first", Message: "m", Type: models.NotificationInfo, CreatedAt: base},
		{UserID: owner.ID, Title: "second", Message: "m", Type: models.NotificationBid, CreatedAt: base.Add(time.Minute)},
		{UserID: stranger.ID, Title: "not yours", Message: "m", Type: models.NotificationInfo, CreatedAt: base},
	}
	require.NoError(t, f.db.Create(&rows).Error)

	listed, err := f.notifications.List(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "second", listed[0].Title)

	require.NoError(t, f.notifications.MarkRead(ctx, rows[1].ID, owner.ID))
	require.NoError(t, f.notifications.MarkRead(ctx, rows[1].ID, owner.ID), "marking twice succeeds")

	unread, err := f.notifications.List(ctx, owner.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "first", unread[0].Title)

	require.NoError(t, f.notifications.MarkUnread(ctx, rows[1].ID, owner.ID))
	require.NoError(t, f.notifications.MarkUnread(ctx, rows[1].ID, owner.ID))
	unread, err = f.notifications.List(ctx, owner.ID, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	err = f.notifications.MarkRead(ctx, rows[2].ID, owner.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	err = f.notifications.MarkRead(ctx, uuid.New(), owner.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNotificationPageCap(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	capped := NewNotificationService(f.db, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, capped.Notify(nil, owner.ID, models.NotificationSystem, "t", "m", nil))
	}

	listed, err := capped.List(context.Background(), owner.ID, false)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}
