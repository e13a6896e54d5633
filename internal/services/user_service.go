package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/database"
	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/utils"
)

type UserService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type UserFilter struct {
	utils.PaginationParams
	Status *models.UserStatus
	Role   *models.UserRole
}

func NewUserService(db *gorm.DB, notifications *NotificationService) *UserService {
	return &UserService{
		db:            db,
		notifications: notifications,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []models.User{}
	query = utils.ApplyPagination(query.Order("created_at DESC"), filter.PaginationParams)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, total, nil
}

// SetStatus approves or suspends an account and notifies the user.
func (s *UserService) SetStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) (*models.User, models.UserStatus, error) {
	if !status.Valid() {
		return nil, "", apperrors.Validation(fmt.Sprintf("unknown user status %q", status))
	}

	var user models.User
	var previous models.UserStatus
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("user")
			}
			return err
		}
		previous = user.Status
		if previous == status {
			return nil
		}

		if err := tx.Model(&user).Update("status", status).Error; err != nil {
			return err
		}
		user.Status = status

		message := "Your account has been approved. You can now log in."
		if status == models.UserStatusPending {
			message = "Your account is pending review by an administrator."
		}
		return s.notifications.Notify(tx, user.ID, models.NotificationSystem, "Account status updated", message, nil)
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to update user status: %w", err)
	}
	return &user, previous, nil
}
