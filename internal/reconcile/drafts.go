package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/labs/fleamarket/internal/client"
	"github.com/labs/fleamarket/internal/localcache"
	"github.com/labs/fleamarket/internal/models"
)

// RetryResult is the outcome of resubmitting one draft.
type RetryResult struct {
	DraftID uuid.UUID
	Item    *models.Item
	Err     error
}

// CreateItem records the listing as a draft and submits it. On failure the
// draft stays, carrying the error, and can be retried.
func (r *Repository) CreateItem(ctx context.Context, input client.ItemInput) (*models.Item, error) {
	s, err := r.signedIn()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}

	draft := &localcache.CachedItem{
		SellerID:       s.UserID,
		Title:          input.Title,
		Description:    input.Description,
		ItemType:       input.ItemType,
		Price:          input.Price,
		StartingBid:    input.StartingBid,
		CurrentBid:     input.StartingBid,
		Status:         models.ItemStatusPending,
		Images:         input.Images,
		CategoryID:     input.CategoryID,
		AuctionEndTime: input.AuctionEndTime,
		PickupLocation: input.PickupLocation,
		Kind:           localcache.DraftCreate,
		Payload:        string(payload),
	}
	if err := r.cache.SaveDraft(ctx, draft); err != nil {
		return nil, wrapCache("save draft", err)
	}

	return r.submit(ctx, draft)
}

// UpdateItem records the edit as a draft of the item and submits it.
func (r *Repository) UpdateItem(ctx context.Context, id uuid.UUID, patch client.ItemPatch) (*models.Item, error) {
	if _, err := r.signedIn(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}

	draft := &localcache.CachedItem{}
	if cached, err := r.cache.Item(ctx, id); err == nil {
		row := localcache.FromItem(*cached)
		draft = &row
	}
	applyPatch(draft, patch)
	draft.ID = uuid.Nil
	draft.TargetID = &id
	draft.Kind = localcache.DraftUpdate
	draft.Payload = string(payload)

	if err := r.cache.SaveDraft(ctx, draft); err != nil {
		return nil, wrapCache("save draft", err)
	}

	return r.submit(ctx, draft)
}

// Drafts lists items the server has not confirmed yet.
func (r *Repository) Drafts(ctx context.Context) ([]localcache.CachedItem, error) {
	return r.cache.Drafts(ctx)
}

func (r *Repository) RetryDraft(ctx context.Context, draftID uuid.UUID) (*models.Item, error) {
	if _, err := r.signedIn(); err != nil {
		return nil, err
	}
	draft, err := r.cache.Draft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, draft)
}

// RetryAll resubmits every draft, oldest first, and stops early when ctx is
// done.
func (r *Repository) RetryAll(ctx context.Context) ([]RetryResult, error) {
	if _, err := r.signedIn(); err != nil {
		return nil, err
	}
	drafts, err := r.cache.Drafts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]RetryResult, 0, len(drafts))
	for i := range drafts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		item, err := r.submit(ctx, &drafts[i])
		results = append(results, RetryResult{DraftID: drafts[i].ID, Item: item, Err: err})
	}
	return results, nil
}

func (r *Repository) DiscardDraft(ctx context.Context, draftID uuid.UUID) error {
	return r.cache.DiscardDraft(ctx, draftID)
}

func (r *Repository) submit(ctx context.Context, draft *localcache.CachedItem) (*models.Item, error) {
	var (
		confirmed *models.Item
		err       error
	)

	switch draft.Kind {
	case localcache.DraftUpdate:
		var patch client.ItemPatch
		if err := json.Unmarshal([]byte(draft.Payload), &patch); err != nil {
			return nil, fmt.Errorf("corrupt draft %s: %w", draft.ID, err)
		}
		if draft.TargetID == nil {
			return nil, fmt.Errorf("update draft %s has no target", draft.ID)
		}
		confirmed, err = r.remote.UpdateItem(ctx, *draft.TargetID, &patch)
	default:
		var input client.ItemInput
		if err := json.Unmarshal([]byte(draft.Payload), &input); err != nil {
			return nil, fmt.Errorf("corrupt draft %s: %w", draft.ID, err)
		}
		confirmed, err = r.remote.CreateItem(ctx, &input)
	}

	if err != nil {
		if markErr := r.cache.MarkDraftFailed(context.WithoutCancel(ctx), draft.ID, err); markErr != nil {
			logrus.WithError(markErr).WithField("draft_id", draft.ID).Warn("Failed to record sync error")
		}
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return confirmed, err
	}
	if err := r.cache.CommitDraft(ctx, draft.ID, *confirmed); err != nil {
		return confirmed, wrapCache("commit draft", err)
	}
	return confirmed, nil
}

func applyPatch(row *localcache.CachedItem, patch client.ItemPatch) {
	if patch.Title != nil {
		row.Title = *patch.Title
	}
	if patch.Description != nil {
		row.Description = *patch.Description
	}
	if patch.ItemType != nil {
		row.ItemType = *patch.ItemType
	}
	if patch.Price != nil {
		row.Price = patch.Price
	}
	if patch.StartingBid != nil {
		row.StartingBid = patch.StartingBid
	}
	if patch.Images != nil {
		row.Images = patch.Images
	}
	if patch.CategoryID != nil {
		row.CategoryID = patch.CategoryID
	}
	if patch.AuctionEndTime != nil {
		row.AuctionEndTime = patch.AuctionEndTime
	}
	if patch.PickupLocation != nil {
		row.PickupLocation = *patch.PickupLocation
	}
}
