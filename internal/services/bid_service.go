package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/database"
	"github.com/labs/fleamarket/internal/models"
)

var bidOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "fleamarket_bids_total", Help: "Bid placement attempts by outcome"},
	[]string{"result"},
)

func init() { prometheus.MustRegister(bidOutcomes) }

// errBidConflict means another bid moved currentBid between our read and
// our conditional write.
var errBidConflict = errors.New("current bid changed concurrently")

type BidService struct {
	db            *gorm.DB
	notifications *NotificationService
	maxAttempts   int
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// BidResponse is a bid as shown to clients.
type BidResponse struct {
	models.Bid
	BidderName string `json:"bidderName"`
}

func NewBidService(db *gorm.DB, notifications *NotificationService, maxAttempts int) *BidService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &BidService{
		db:            db,
		notifications: notifications,
		maxAttempts:   maxAttempts,
	}
}

// PlaceBid validates and commits a bid. The item row is read under lock and
// currentBid is swapped only if it still holds the value that was
// validated against. A lost race replays the whole sequence, so a bid that
// is no longer high enough ends as InvalidBid.
func (s *BidService) PlaceBid(ctx context.Context, itemID, bidderID uuid.UUID, amount float64) (*BidResponse, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, apperrors.InvalidBid("amount must be a number")
	}
	if !models.IsCentAmount(amount) {
		return nil, apperrors.InvalidBid("amount must have at most two decimal places")
	}
	if amount > models.MaxAmount {
		return nil, apperrors.InvalidBid(fmt.Sprintf("amount must not exceed %.2f", models.MaxAmount))
	}

	for attempt := 1; ; attempt++ {
		bid, err := s.tryPlaceBid(ctx, itemID, bidderID, amount)
		switch {
		case err == nil:
			bidOutcomes.WithLabelValues("accepted").Inc()
			return bid, nil
		case errors.Is(err, errBidConflict) || database.IsRetryable(err):
			bidOutcomes.WithLabelValues("conflict").Inc()
			if attempt >= s.maxAttempts {
				return nil, apperrors.Transient(err)
			}
			logrus.WithFields(logrus.Fields{
				"item_id": itemID,
				"attempt": attempt,
			}).WithError(err).Debug("Retrying bid after conflict")
			if err := backoff(ctx, attempt); err != nil {
				return nil, apperrors.Transient(err)
			}
		case apperrors.IsDomain(err):
			bidOutcomes.WithLabelValues("rejected").Inc()
			return nil, err
		default:
			return nil, fmt.Errorf("failed to place bid: %w", err)
		}
	}
}

func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * 5 * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *BidService) tryPlaceBid(ctx context.Context, itemID, bidderID uuid.UUID, amount float64) (*BidResponse, error) {
	var result *BidResponse

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var item models.Item
		if err := database.ForUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("item")
			}
			return err
		}

		if item.Status != models.ItemStatusActive {
			return apperrors.InvalidState("item not active")
		}
		if !item.IsAuction() {
			return apperrors.InvalidState("item is not an auction")
		}
		if minimum := item.MinimumBid(); amount <= minimum {
			return apperrors.InvalidBid(fmt.Sprintf("amount must exceed current bid of %.2f", minimum))
		}

		var bidder models.User
		if err := tx.First(&bidder, "id = ?", bidderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("user")
			}
			return err
		}

		swap := tx.Model(&models.Item{}).Where("id = ?", item.ID)
		if item.CurrentBid == nil {
			swap = swap.Where("current_bid IS NULL")
		} else {
			swap = swap.Where("current_bid = ?", *item.CurrentBid)
		}
		swap = swap.Update("current_bid", amount)
		if swap.Error != nil {
			return swap.Error
		}
		if swap.RowsAffected == 0 {
			return errBidConflict
		}

		bid := models.Bid{
			ItemID:   item.ID,
			BidderID: bidder.ID,
			Amount:   amount,
		}
		if err := tx.Create(&bid).Error; err != nil {
			return err
		}

		if err := s.notifications.NotifyNewBid(tx, &item, amount); err != nil {
			return err
		}

		result = &BidResponse{Bid: bid, BidderName: bidder.FullName()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListBids returns the bids on an item, highest first and earliest first
// among equal amounts.
func (s *BidService) ListBids(ctx context.Context, itemID uuid.UUID) ([]BidResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}
	if count == 0 {
		return nil, apperrors.NotFound("item")
	}

	var bids []models.Bid
	err := s.db.WithContext(ctx).
		Preload("Bidder").
		Where("item_id = ?", itemID).
		Order(models.BidOrder).
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bids: %w", err)
	}

	responses := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		response := BidResponse{Bid: bid}
		if bid.Bidder != nil {
			response.BidderName = bid.Bidder.FullName()
		}
		responses = append(responses, response)
	}
	return responses, nil
}

// HighestBid returns the leading bid, or nil when there is none.
func (s *BidService) HighestBid(ctx context.Context, itemID uuid.UUID) (*BidResponse, error) {
	bids, err := s.ListBids(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, nil
	}
	return &bids[0], nil
}
