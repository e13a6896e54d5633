// Package reconcile keeps the device cache and the server in agreement.
// Reads go to the server first and fall back to the cache when it cannot
// be reached; writes are recorded as drafts until the server confirms them.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/client"
	"github.com/labs/fleamarket/internal/localcache"
	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/session"
	"github.com/labs/fleamarket/internal/viewstate"
)

type Repository struct {
	remote   Remote
	cache    *localcache.Store
	sessions *session.Manager
}

// ItemList is one page of items, all from the same source.
type ItemList struct {
	Items  []models.Item
	Source viewstate.Source
}

func NewRepository(remote Remote, cache *localcache.Store, sessions *session.Manager) *Repository {
	return &Repository{
		remote:   remote,
		cache:    cache,
		sessions: sessions,
	}
}

// fallsBack reports whether a failed server call should be answered from the
// cache. Domain rejections and cancellation never are.
func fallsBack(ctx context.Context, err error) bool {
	return ctx.Err() == nil && !apperrors.IsDomain(err)
}

// GetItem returns the server's copy of an item and refreshes the cache with
// it. When the server cannot answer the cached copy is returned instead.
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, viewstate.Source, error) {
	remote, err := r.remote.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if evictErr := r.cache.DeleteItem(ctx, id); evictErr != nil {
				logrus.WithError(evictErr).WithField("item_id", id).Warn("Failed to evict cached item")
			}
			return nil, "", err
		}
		if !fallsBack(ctx, err) {
			return nil, "", err
		}

		logrus.WithError(err).WithField("item_id", id).Info("Serving item from cache")
		cached, cacheErr := r.cache.Item(ctx, id)
		if cacheErr != nil {
			return nil, "", cacheErr
		}
		return cached, viewstate.FromCache, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var local *localcache.CachedItem
	if cached, cacheErr := r.cache.Item(ctx, id); cacheErr == nil {
		row := localcache.FromItem(*cached)
		local = &row
	}

	merged := Merge(local, *remote)
	if err := r.cache.UpsertItems(ctx, []models.Item{merged}); err != nil {
		logrus.WithError(err).WithField("item_id", id).Warn("Failed to cache item")
	}
	return &merged, viewstate.FromRemote, nil
}

// GetFeaturedItems is the public catalogue.
func (r *Repository) GetFeaturedItems(ctx context.Context) (*ItemList, error) {
	return r.listItems(ctx, client.ItemQuery{})
}

func (r *Repository) Search(ctx context.Context, query string) (*ItemList, error) {
	return r.listItems(ctx, client.ItemQuery{Search: query})
}

func (r *Repository) GetItemsByCategory(ctx context.Context, categoryID uint) (*ItemList, error) {
	return r.listItems(ctx, client.ItemQuery{CategoryID: &categoryID})
}

func (r *Repository) GetItemsBySeller(ctx context.Context, sellerID uuid.UUID) (*ItemList, error) {
	return r.listItems(ctx, client.ItemQuery{SellerID: &sellerID})
}

func (r *Repository) listItems(ctx context.Context, query client.ItemQuery) (*ItemList, error) {
	items, err := r.remote.ListItems(ctx, query)
	if err != nil {
		if !fallsBack(ctx, err) {
			return nil, err
		}

		logrus.WithError(err).Info("Serving items from cache")
		cached, cacheErr := r.cache.ActiveItems(ctx, localcache.Query{
			CategoryID: query.CategoryID,
			Search:     query.Search,
			SellerID:   query.SellerID,
		})
		if cacheErr != nil {
			return nil, cacheErr
		}
		return &ItemList{Items: cached, Source: viewstate.FromCache}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.cache.UpsertItems(ctx, items); err != nil {
		logrus.WithError(err).Warn("Failed to cache items")
	}
	return &ItemList{Items: items, Source: viewstate.FromRemote}, nil
}

func (r *Repository) signedIn() (session.Session, error) {
	s, ok := r.sessions.Current()
	if !ok {
		return session.Session{}, apperrors.Unauthorized("sign in first")
	}
	return s, nil
}

// ListNotifications, MarkRead and MarkUnread are not cached.
func (r *Repository) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	if _, err := r.signedIn(); err != nil {
		return nil, err
	}
	return r.remote.ListNotifications(ctx, unreadOnly)
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	if _, err := r.signedIn(); err != nil {
		return err
	}
	return r.remote.MarkRead(ctx, id)
}

func (r *Repository) MarkUnread(ctx context.Context, id uuid.UUID) error {
	if _, err := r.signedIn(); err != nil {
		return err
	}
	return r.remote.MarkUnread(ctx, id)
}

func wrapCache(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
