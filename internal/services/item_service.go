package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/database"
	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/utils"
)

type ItemService struct {
	db            *gorm.DB
	notifications *NotificationService
	sanitizer     *bluemonday.Policy
	autoApprove   bool
	pageSize      int
}

type CreateItemRequest struct {
	Title          string          `json:"title" validate:"required,min=3,max=255"`
	Description    string          `json:"description" validate:"max=5000"`
	ItemType       models.ItemType `json:"itemType" validate:"required,oneof=FIXED_PRICE AUCTION"`
	Price          *float64        `json:"price,omitempty" validate:"omitempty,gt=0,lt=10000000000,cents"`
	StartingBid    *float64        `json:"startingBid,omitempty" validate:"omitempty,gte=0,lt=10000000000,cents"`
	Images         []string        `json:"images,omitempty" validate:"max=10,dive,public_url"`
	CategoryID     *uint           `json:"categoryId,omitempty"`
	AuctionEndTime *time.Time      `json:"auctionEndTime,omitempty"`
	PickupLocation string          `json:"pickupLocation,omitempty" validate:"pickup_location"`
}

// UpdateItemRequest changes only the fields that are set.
type UpdateItemRequest struct {
	Title          *string          `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	ItemType       *models.ItemType `json:"itemType,omitempty" validate:"omitempty,oneof=FIXED_PRICE AUCTION"`
	Price          *float64         `json:"price,omitempty" validate:"omitempty,gt=0,lt=10000000000,cents"`
	StartingBid    *float64         `json:"startingBid,omitempty" validate:"omitempty,gte=0,lt=10000000000,cents"`
	Images         []string         `json:"images,omitempty" validate:"omitempty,max=10,dive,public_url"`
	CategoryID     *uint            `json:"categoryId,omitempty"`
	AuctionEndTime *time.Time       `json:"auctionEndTime,omitempty"`
	PickupLocation *string          `json:"pickupLocation,omitempty" validate:"omitempty,pickup_location"`
}

type ItemFilter struct {
	CategoryID *uint
	Search     string
	SellerID   *uuid.UUID
	Status     *models.ItemStatus
}

func NewItemService(db *gorm.DB, notifications *NotificationService, autoApprove bool, pageSize int) *ItemService {
	return &ItemService{
		db:            db,
		notifications: notifications,
		sanitizer:     bluemonday.UGCPolicy(),
		autoApprove:   autoApprove,
		pageSize:      pageSize,
	}
}

func (s *ItemService) Create(ctx context.Context, sellerID uuid.UUID, req *CreateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if err := checkPricing(req.ItemType, req.Price, req.StartingBid); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var seller models.User
	if err := db.First(&seller, "id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}

	if err := s.checkCategory(db, req.CategoryID); err != nil {
		return nil, err
	}

	status := models.ItemStatusPending
	if s.autoApprove {
		status = models.ItemStatusActive
	}

	item := &models.Item{
		SellerID:       sellerID,
		Title:          strings.TrimSpace(req.Title),
		Description:    s.sanitizer.Sanitize(req.Description),
		ItemType:       req.ItemType,
		Status:         status,
		Images:         pq.StringArray(nonNil(req.Images)),
		CategoryID:     req.CategoryID,
		AuctionEndTime: req.AuctionEndTime,
		PickupLocation: normalizePickup(req.PickupLocation),
	}
	if req.ItemType == models.ItemTypeAuction {
		item.StartingBid = req.StartingBid
		item.CurrentBid = req.StartingBid
	} else {
		item.Price = req.Price
	}

	if err := db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.Get(ctx, item.ID)
}

func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).
		Preload("Seller").
		Preload("Category").
		First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("item")
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

// ListActive is the public catalogue: ACTIVE items only, newest first.
func (s *ItemService) ListActive(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	active := models.ItemStatusActive
	filter.Status = &active
	return s.List(ctx, filter)
}

// List filters by status, category, seller and a case-insensitive search
// over title and description. Results are newest first and capped.
func (s *ItemService) List(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	query := s.db.WithContext(ctx).Model(&models.Item{}).
		Preload("Seller").
		Preload("Category")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		term := models.SearchPattern(search)
		query = query.Where(models.SearchCondition, term, term)
	}

	items := []models.Item{}
	if err := query.Order("created_at DESC, id DESC").Limit(s.pageSize).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return items, nil
}

// Update edits a listing on behalf of its owner. Accumulated bids are never
// touched; pricing that bids were placed against is frozen once bids exist.
func (s *ItemService) Update(ctx context.Context, itemID, ownerID uuid.UUID, req *UpdateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var item models.Item
		if err := database.ForUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("item")
			}
			return err
		}

		if item.SellerID != ownerID {
			return apperrors.Unauthorized("only the seller can edit this item")
		}
		if item.Status == models.ItemStatusSold {
			return apperrors.InvalidState("item is sold")
		}

		changes := map[string]interface{}{}

		itemType := item.ItemType
		if req.ItemType != nil {
			itemType = *req.ItemType
		}
		pricingChanged := itemType != item.ItemType || req.StartingBid != nil || (req.Price != nil && itemType == models.ItemTypeAuction)
		if pricingChanged {
			var bids int64
			if err := tx.Model(&models.Bid{}).Where("item_id = ?", item.ID).Count(&bids).Error; err != nil {
				return err
			}
			if bids > 0 && (itemType != item.ItemType || req.StartingBid != nil) {
				return apperrors.InvalidState("item has bids")
			}
		}

		price, startingBid := item.Price, item.StartingBid
		if itemType != item.ItemType {
			price, startingBid = nil, nil
		}
		if req.Price != nil {
			price = req.Price
		}
		if req.StartingBid != nil {
			startingBid = req.StartingBid
		}
		if err := checkPricing(itemType, price, startingBid); err != nil {
			return err
		}

		if itemType == models.ItemTypeAuction {
			changes["price"] = nil
			changes["starting_bid"] = *startingBid
			if itemType != item.ItemType || req.StartingBid != nil {
				// Only reachable without bids, see above.
				changes["current_bid"] = *startingBid
			}
		} else {
			changes["price"] = *price
			changes["starting_bid"] = nil
			changes["current_bid"] = nil
		}
		changes["item_type"] = itemType

		if req.Title != nil {
			changes["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			changes["description"] = s.sanitizer.Sanitize(*req.Description)
		}
		if req.Images != nil {
			changes["images"] = pq.StringArray(req.Images)
		}
		if req.CategoryID != nil {
			if err := s.checkCategory(tx, req.CategoryID); err != nil {
				return err
			}
			changes["category_id"] = *req.CategoryID
		}
		if req.AuctionEndTime != nil {
			changes["auction_end_time"] = *req.AuctionEndTime
		}
		if req.PickupLocation != nil {
			changes["pickup_location"] = normalizePickup(*req.PickupLocation)
		}

		return tx.Model(&item).Updates(changes).Error
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return s.Get(ctx, itemID)
}

// SetStatus is the moderation override. Any status may be set; the seller
// is told about the change.
func (s *ItemService) SetStatus(ctx context.Context, itemID uuid.UUID, status models.ItemStatus) (*models.Item, models.ItemStatus, error) {
	if !status.Valid() {
		return nil, "", apperrors.Validation(fmt.Sprintf("unknown item status %q", status))
	}

	var previous models.ItemStatus
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var item models.Item
		if err := database.ForUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("item")
			}
			return err
		}
		previous = item.Status

		if err := tx.Model(&item).Update("status", status).Error; err != nil {
			return err
		}
		if previous == status {
			return nil
		}
		return s.notifications.Notify(tx, item.SellerID, models.NotificationSystem,
			"Listing status updated",
			fmt.Sprintf("Your item %s is now %s", item.Title, status),
			&item.ID)
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to update item status: %w", err)
	}

	item, err := s.Get(ctx, itemID)
	return item, previous, err
}

// Delete soft-deletes a listing. Bids and notifications keep pointing at
// the row; the item just disappears from every query.
func (s *ItemService) Delete(ctx context.Context, itemID, actorID uuid.UUID, asAdmin bool) (*models.Item, error) {
	var removed models.Item
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&removed, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("item")
			}
			return err
		}

		if !asAdmin && removed.SellerID != actorID {
			return apperrors.Unauthorized("only the seller or an admin can remove this item")
		}
		if removed.Status == models.ItemStatusSold {
			return apperrors.InvalidState("sold items cannot be removed")
		}

		if err := tx.Delete(&removed).Error; err != nil {
			return err
		}

		if asAdmin && removed.SellerID != actorID {
			return s.notifications.Notify(tx, removed.SellerID, models.NotificationInfo,
				"Listing removed",
				fmt.Sprintf("Your item %s was removed by an administrator", removed.Title),
				&removed.ID)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}
	return &removed, nil
}

func (s *ItemService) checkCategory(db *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up category: %w", err)
	}
	if count == 0 {
		return apperrors.NotFound("category")
	}
	return nil
}

// checkPricing enforces price XOR startingBid.
func checkPricing(itemType models.ItemType, price, startingBid *float64) error {
	switch itemType {
	case models.ItemTypeFixedPrice:
		if price == nil {
			return apperrors.Validation("fixed price items need a price")
		}
		if startingBid != nil {
			return apperrors.Validation("fixed price items cannot have a starting bid")
		}
	case models.ItemTypeAuction:
		if startingBid == nil {
			return apperrors.Validation("auction items need a starting bid")
		}
		if price != nil {
			return apperrors.Validation("auction items cannot have a fixed price")
		}
	default:
		return apperrors.Validation(fmt.Sprintf("unknown item type %q", itemType))
	}
	return nil
}

func normalizePickup(location string) string {
	if location == "" {
		return models.PickupSTC
	}
	return location
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func validationError(err error) error {
	if errs := utils.GetValidationErrors(err); len(errs) > 0 {
		return apperrors.Validation(errs[0].Message)
	}
	return apperrors.Validation(err.Error())
}
