package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/models"
)

type NotificationService struct {
	db       *gorm.DB
	pageSize int
}

func NewNotificationService(db *gorm.DB, pageSize int) *NotificationService {
	return &NotificationService{
		db:       db,
		pageSize: pageSize,
	}
}

// NotifyNewBid tells the seller about an accepted bid. It runs on the bid
// engine's transaction so the notice commits with the bid or not at all.
func (s *NotificationService) NotifyNewBid(tx *gorm.DB, item *models.Item, amount float64) error {
	itemID := item.ID
	notification := &models.Notification{
		UserID:  item.SellerID,
		Title:   "New Bid on " + item.Title,
		Message: fmt.Sprintf("Someone placed a bid of %.2f on your item", amount),
		Type:    models.NotificationBid,
		ItemID:  &itemID,
	}
	if err := tx.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create bid notification: %w", err)
	}
	return nil
}

// Notify stores a notification using tx, or the service's handle when tx is nil.
func (s *NotificationService) Notify(tx *gorm.DB, userID uuid.UUID, kind models.NotificationType, title, message string, itemID *uuid.UUID) error {
	if tx == nil {
		tx = s.db
	}
	notification := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
		ItemID:  itemID,
	}
	if err := tx.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns the newest notifications of a user, capped at the page size.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	notifications := []models.Notification{}
	if err := query.Order("created_at DESC, id DESC").Limit(s.pageSize).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.setRead(ctx, id, userID, true)
}

func (s *NotificationService) MarkUnread(ctx context.Context, id, userID uuid.UUID) error {
	return s.setRead(ctx, id, userID, false)
}

// setRead is idempotent: writing the flag it already has still succeeds.
func (s *NotificationService) setRead(ctx context.Context, id, userID uuid.UUID, read bool) error {
	var notification models.Notification
	if err := s.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("notification")
		}
		return fmt.Errorf("failed to load notification: %w", err)
	}

	if notification.UserID != userID {
		return apperrors.Unauthorized("notification belongs to another user")
	}

	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", read).Error
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}
