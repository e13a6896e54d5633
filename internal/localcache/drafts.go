package localcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/models"
)

// SaveDraft stores an unconfirmed item. The payload is what gets sent to the
// server when the draft is submitted or retried.
func (s *Store) SaveDraft(ctx context.Context, draft *CachedItem) error {
	draft.Draft = true
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}
	if draft.Images == nil {
		draft.Images = []string{}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(draft).Error
}

func (s *Store) Draft(ctx context.Context, id uuid.UUID) (*CachedItem, error) {
	var draft CachedItem
	err := s.db.WithContext(ctx).Where("id = ? AND draft = ?", id, true).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("draft")
		}
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return &draft, nil
}

// Drafts lists unconfirmed items, oldest first.
func (s *Store) Drafts(ctx context.Context) ([]CachedItem, error) {
	var drafts []CachedItem
	err := s.db.WithContext(ctx).Where("draft = ?", true).Order("created_at ASC, id ASC").Find(&drafts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

func (s *Store) MarkDraftFailed(ctx context.Context, id uuid.UUID, syncErr error) error {
	return s.db.WithContext(ctx).Model(&CachedItem{}).
		Where("id = ? AND draft = ?", id, true).
		Update("sync_error", syncErr.Error()).Error
}

func (s *Store) DiscardDraft(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND draft = ?", id, true).Delete(&CachedItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to discard draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("draft")
	}
	return nil
}

// CommitDraft swaps a draft for the item the server confirmed, in one
// transaction.
func (s *Store) CommitDraft(ctx context.Context, draftID uuid.UUID, confirmed models.Item) error {
	row := FromItem(confirmed)
	row.SyncedAt = time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND draft = ?", draftID, true).Delete(&CachedItem{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}
