package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/cache"
	"github.com/labs/fleamarket/internal/models"
)

const categoriesCacheKey = "fleamarket:categories"

type CategoryService struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

func NewCategoryService(db *gorm.DB, c *cache.Cache, ttl time.Duration) *CategoryService {
	return &CategoryService{
		db:    db,
		cache: c,
		ttl:   ttl,
	}
}

// List returns all categories ordered by id. Categories change only through
// seeding, so they are served from the cache.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return cache.GetOrLoadMsgpack(s.cache, ctx, categoriesCacheKey, s.ttl, func(ctx context.Context) ([]models.Category, error) {
		categories := []models.Category{}
		if err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch categories: %w", err)
		}
		return categories, nil
	})
}

func (s *CategoryService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, categoriesCacheKey)
}
