package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/utils"
)

// AdminService wraps moderation actions and records each one in the audit log.
type AdminService struct {
	db    *gorm.DB
	users *UserService
	items *ItemService
}

type AdminItemFilter struct {
	utils.PaginationParams
	Status *models.ItemStatus
}

func NewAdminService(db *gorm.DB, users *UserService, items *ItemService) *AdminService {
	return &AdminService{
		db:    db,
		users: users,
		items: items,
	}
}

func (s *AdminService) GetUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	return s.users.List(ctx, filter)
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, adminID, userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	user, previous, err := s.users.SetStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	s.createAuditLog(ctx, adminID, "UPDATE_USER_STATUS", "user", &userID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": status})
	return user, nil
}

// GetItems lists every item regardless of status, newest first.
func (s *AdminService) GetItems(ctx context.Context, filter AdminItemFilter) ([]models.Item, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Item{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	items := []models.Item{}
	query = utils.ApplyPagination(query.Preload("Seller").Order("created_at DESC, id DESC"), filter.PaginationParams)
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch items: %w", err)
	}
	return items, total, nil
}

func (s *AdminService) UpdateItemStatus(ctx context.Context, adminID, itemID uuid.UUID, status models.ItemStatus) (*models.Item, error) {
	item, previous, err := s.items.SetStatus(ctx, itemID, status)
	if err != nil {
		return nil, err
	}

	s.createAuditLog(ctx, adminID, "UPDATE_ITEM_STATUS", "item", &itemID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": status})
	return item, nil
}

func (s *AdminService) RemoveItem(ctx context.Context, adminID, itemID uuid.UUID) error {
	item, err := s.items.Delete(ctx, itemID, adminID, true)
	if err != nil {
		return err
	}

	s.createAuditLog(ctx, adminID, "REMOVE_ITEM", "item", &itemID,
		map[string]interface{}{"status": item.Status, "title": item.Title},
		nil)
	return nil
}

// createAuditLog is best effort: the moderation action already committed.
func (s *AdminService) createAuditLog(ctx context.Context, adminID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}

	if err := s.db.WithContext(ctx).Create(auditLog).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"resource_id": resourceID,
		}).Error("Failed to create audit log")
	}
}
