package reconcile

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/client"
	"github.com/labs/fleamarket/internal/localcache"
	"github.com/labs/fleamarket/internal/viewstate"
)

// BidList is the bid history of an item plus this device's pending bids.
type BidList struct {
	Bids   []localcache.CachedBid
	Drafts []localcache.CachedBid
	Source viewstate.Source
}

func toCached(bid client.Bid) localcache.CachedBid {
	return localcache.CachedBid{
		ID:         bid.ID,
		ItemID:     bid.ItemID,
		BidderID:   bid.BidderID,
		BidderName: bid.BidderName,
		Amount:     bid.Amount,
		Timestamp:  bid.CreatedAt,
	}
}

// PlaceBid records the bid as a draft and submits it. A rejected bid is
// dropped; a bid that could not be delivered stays as a draft for RetryBid.
func (r *Repository) PlaceBid(ctx context.Context, itemID uuid.UUID, amount float64) (*client.Bid, error) {
	s, err := r.signedIn()
	if err != nil {
		return nil, err
	}

	draft := &localcache.CachedBid{
		ItemID:     itemID,
		BidderID:   s.UserID,
		BidderName: s.Name,
		Amount:     amount,
	}
	if err := r.cache.SaveDraftBid(ctx, draft); err != nil {
		return nil, wrapCache("save draft bid", err)
	}

	return r.submitBid(ctx, draft)
}

// RetryBid resubmits a pending bid.
func (r *Repository) RetryBid(ctx context.Context, itemID, draftID uuid.UUID) (*client.Bid, error) {
	if _, err := r.signedIn(); err != nil {
		return nil, err
	}
	drafts, err := r.cache.DraftBids(ctx, itemID)
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		if drafts[i].ID == draftID {
			return r.submitBid(ctx, &drafts[i])
		}
	}
	return nil, apperrors.NotFound("draft bid")
}

func (r *Repository) submitBid(ctx context.Context, draft *localcache.CachedBid) (*client.Bid, error) {
	bid, err := r.remote.PlaceBid(ctx, draft.ItemID, draft.Amount)
	if err != nil {
		detached := context.WithoutCancel(ctx)
		if apperrors.IsDomain(err) {
			if discardErr := r.cache.DiscardBid(detached, draft.ID); discardErr != nil {
				logrus.WithError(discardErr).WithField("bid_id", draft.ID).Warn("Failed to discard rejected bid")
			}
		} else if markErr := r.cache.MarkBidFailed(detached, draft.ID, err); markErr != nil {
			logrus.WithError(markErr).WithField("bid_id", draft.ID).Warn("Failed to record sync error")
		}
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return bid, err
	}
	if err := r.cache.CommitBid(ctx, draft.ID, toCached(*bid)); err != nil {
		return bid, wrapCache("commit bid", err)
	}
	return bid, nil
}

// ListBids returns the server's bid history and refreshes the cache with it.
// Pending bids at or below the highest confirmed amount are dropped since
// they can no longer win.
func (r *Repository) ListBids(ctx context.Context, itemID uuid.UUID) (*BidList, error) {
	remote, err := r.remote.ListBids(ctx, itemID)
	if err != nil {
		if !fallsBack(ctx, err) {
			return nil, err
		}

		logrus.WithError(err).WithField("item_id", itemID).Info("Serving bids from cache")
		bids, cacheErr := r.cache.Bids(ctx, itemID)
		if cacheErr != nil {
			return nil, cacheErr
		}
		drafts, cacheErr := r.cache.DraftBids(ctx, itemID)
		if cacheErr != nil {
			return nil, cacheErr
		}
		return &BidList{Bids: bids, Drafts: drafts, Source: viewstate.FromCache}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bids := make([]localcache.CachedBid, 0, len(remote))
	for _, bid := range remote {
		bids = append(bids, toCached(bid))
	}
	if err := r.cache.ReplaceBids(ctx, itemID, bids); err != nil {
		return nil, wrapCache("replace bids", err)
	}

	drafts, err := r.cache.DraftBids(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &BidList{Bids: bids, Drafts: drafts, Source: viewstate.FromRemote}, nil
}
