package localcache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/apperrors"
)

const bidOrder = "amount DESC, timestamp ASC, id ASC"

func (s *Store) SaveDraftBid(ctx context.Context, bid *CachedBid) error {
	bid.Draft = true
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	if bid.Timestamp.IsZero() {
		bid.Timestamp = time.Now()
	}
	return s.db.WithContext(ctx).Create(bid).Error
}

func (s *Store) MarkBidFailed(ctx context.Context, id uuid.UUID, syncErr error) error {
	return s.db.WithContext(ctx).Model(&CachedBid{}).
		Where("id = ? AND draft = ?", id, true).
		Update("sync_error", syncErr.Error()).Error
}

func (s *Store) DiscardBid(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND draft = ?", id, true).Delete(&CachedBid{})
	if result.Error != nil {
		return fmt.Errorf("failed to discard draft bid: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("draft bid")
	}
	return nil
}

// CommitBid swaps a draft bid for the confirmed one and raises the cached
// item's current bid. The current bid never goes down.
func (s *Store) CommitBid(ctx context.Context, draftID uuid.UUID, confirmed CachedBid) error {
	confirmed.Draft = false
	confirmed.SyncError = ""

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND draft = ?", draftID, true).Delete(&CachedBid{}).Error; err != nil {
			return err
		}
		if err := tx.Save(&confirmed).Error; err != nil {
			return err
		}
		return raiseCurrentBid(tx, confirmed.ItemID, confirmed.Amount)
	})
}

// ReplaceBids makes the cached confirmed bids of an item equal to bids and
// drops drafts that the confirmed highest bid has overtaken.
func (s *Store) ReplaceBids(ctx context.Context, itemID uuid.UUID, bids []CachedBid) error {
	highest := 0.0
	for i := range bids {
		bids[i].ItemID = itemID
		bids[i].Draft = false
		if bids[i].Amount > highest {
			highest = bids[i].Amount
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ? AND draft = ?", itemID, false).Delete(&CachedBid{}).Error; err != nil {
			return err
		}
		if len(bids) > 0 {
			if err := tx.Create(&bids).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("item_id = ? AND draft = ? AND amount <= ?", itemID, true, highest).Delete(&CachedBid{}).Error; err != nil {
			return err
		}
		if len(bids) == 0 {
			return nil
		}
		return raiseCurrentBid(tx, itemID, highest)
	})
}

// Bids returns cached confirmed bids in display order.
func (s *Store) Bids(ctx context.Context, itemID uuid.UUID) ([]CachedBid, error) {
	return s.bids(ctx, itemID, false)
}

// DraftBids returns bids that are still waiting for the server.
func (s *Store) DraftBids(ctx context.Context, itemID uuid.UUID) ([]CachedBid, error) {
	return s.bids(ctx, itemID, true)
}

func (s *Store) bids(ctx context.Context, itemID uuid.UUID, draft bool) ([]CachedBid, error) {
	var bids []CachedBid
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND draft = ?", itemID, draft).
		Order(bidOrder).
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read cached bids: %w", err)
	}
	return bids, nil
}

func raiseCurrentBid(tx *gorm.DB, itemID uuid.UUID, amount float64) error {
	return tx.Model(&CachedItem{}).
		Where("id = ? AND draft = ? AND (current_bid IS NULL OR current_bid < ?)", itemID, false, amount).
		Update("current_bid", amount).Error
}
