// Package localcache is the device-side replica of server items and bids,
// plus the drafts that are waiting to be confirmed.
package localcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/models"
)

// DefaultLimit caps cached listings the same way the server caps its pages.
const DefaultLimit = 100

type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get local cache handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&CachedItem{}, &CachedBid{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local cache: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertItems replaces the cached copies of items in one transaction, so a
// failure leaves the previous copies untouched.
func (s *Store) UpsertItems(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]CachedItem, 0, len(items))
	for _, item := range items {
		row := FromItem(item)
		row.SyncedAt = now
		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

// Item returns the confirmed copy of an item.
func (s *Store) Item(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var row CachedItem
	err := s.db.WithContext(ctx).Where("id = ? AND draft = ?", id, false).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("item")
		}
		return nil, fmt.Errorf("failed to read cached item: %w", err)
	}
	item := row.ToItem()
	return &item, nil
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ? AND draft = ?", id, false).Delete(&CachedBid{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&CachedItem{}).Error
	})
}

// Query mirrors the server's catalogue filters over the confirmed rows.
type Query struct {
	CategoryID *uint
	Search     string
	SellerID   *uuid.UUID
}

// ActiveItems returns confirmed ACTIVE items, newest first.
func (s *Store) ActiveItems(ctx context.Context, q Query) ([]models.Item, error) {
	query := s.db.WithContext(ctx).
		Where("draft = ? AND status = ?", false, models.ItemStatusActive)

	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if q.SellerID != nil {
		query = query.Where("seller_id = ?", *q.SellerID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		term := models.SearchPattern(search)
		query = query.Where(models.SearchCondition, term, term)
	}

	var rows []CachedItem
	if err := query.Order("created_at DESC, id DESC").Limit(DefaultLimit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query cached items: %w", err)
	}

	items := make([]models.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToItem())
	}
	return items, nil
}
