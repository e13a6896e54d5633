package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/models"
)

func TestPlaceBidSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, buyer := f.user(t, "seller"), f.user(t, "buyer")
	item := f.auction(t, seller, 100)

	steps := []struct {
		amount  float64
		wantErr error
		current float64
	}{
		{amount: 50, wantErr: apperrors.ErrInvalidBid, current: 100},
		{amount: 100, wantErr: apperrors.ErrInvalidBid, current: 100},
		{amount: 150, current: 150},
		{amount: 150, wantErr: apperrors.ErrInvalidBid, current: 150},
		{amount: 200, current: 200},
	}

	for i, step := range steps {
		bid, err := f.bids.PlaceBid(ctx, item.ID, buyer.ID, step.amount)
		if step.wantErr != nil {
			require.ErrorIs(t, err, step.wantErr, "step %d", i)
			assert.Nil(t, bid)
		} else {
			require.NoError(t, err, "step %d", i)
			assert.Equal(t, step.amount, bid.Amount)
			assert.Equal(t, "buyer Tester", bid.BidderName)
		}
		stored := f.reload(t, item.ID)
		require.NotNil(t, stored.CurrentBid)
		assert.Equal(t, step.current, *stored.CurrentBid, "step %d", i)
	}

	bids, err := f.bids.ListBids(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, 200.0, bids[0].Amount)
	assert.Equal(t, 150.0, bids[1].Amount)

	highest, err := f.bids.HighestBid(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, highest.Amount)

	notifications, err := f.notifications.List(ctx, seller.ID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, models.NotificationBid, notifications[0].Type)
	assert.Equal(t, "New Bid on Desk lamp", notifications[0].Title)
	assert.Equal(t, "Someone placed a bid of 200.00 on your item", notifications[0].Message)
	assert.Equal(t, item.ID, *notifications[0].ItemID)
}

func TestPlaceBidRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, buyer := f.user(t, "seller"), f.user(t, "buyer")

	fixed := f.fixedPrice(t, seller, 500)
	sold := f.auction(t, seller, 100)
	require.NoError(t, f.db.Model(sold).Update("status", models.ItemStatusSold).Error)
	pending := f.auction(t, seller, 100)
	require.NoError(t, f.db.Model(pending).Update("status", models.ItemStatusPending).Error)
	open := f.auction(t, seller, 100)

	tests := []struct {
		name    string
		itemID  uuid.UUID
		bidder  uuid.UUID
		amount  float64
		wantErr error
		wantMsg string
	}{
		{name: "unknown item", itemID: uuid.New(), bidder: buyer.ID, amount: 900, wantErr: apperrors.ErrNotFound, wantMsg: "item not found"},
		{name: "fixed price", itemID: fixed.ID, bidder: buyer.ID, amount: 900, wantErr: apperrors.ErrInvalidState, wantMsg: "item is not an auction"},
		{name: "sold", itemID: sold.ID, bidder: buyer.ID, amount: 900, wantErr: apperrors.ErrInvalidState, wantMsg: "item not active"},
		{name: "pending", itemID: pending.ID, bidder: buyer.ID, amount: 900, wantErr: apperrors.ErrInvalidState, wantMsg: "item not active"},
		{name: "negative", itemID: open.ID, bidder: buyer.ID, amount: -5, wantErr: apperrors.ErrInvalidBid},
		{name: "sub-cent", itemID: open.ID, bidder: buyer.ID, amount: 100.004, wantErr: apperrors.ErrInvalidBid, wantMsg: "amount must have at most two decimal places"},
		{name: "sub-cent above current", itemID: open.ID, bidder: buyer.ID, amount: 150.001, wantErr: apperrors.ErrInvalidBid},
		{name: "beyond column range", itemID: open.ID, bidder: buyer.ID, amount: 1e10, wantErr: apperrors.ErrInvalidBid},
		{name: "unknown bidder", itemID: open.ID, bidder: uuid.New(), amount: 900, wantErr: apperrors.ErrNotFound, wantMsg: "user not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bids.PlaceBid(ctx, tt.itemID, tt.bidder, tt.amount)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, apperrors.Message(err))
			}
		})
	}

	assert.Zero(t, f.count(t, &models.Bid{}, "1 = 1"))
	assert.Zero(t, f.count(t, &models.Notification{}, "user_id = ?", seller.ID))
	assert.Equal(t, 100.0, *f.reload(t, open.ID).CurrentBid)
}

func TestPlaceBidConcurrentDistinctAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller")
	item := f.auction(t, seller, 100)

	const bidders = 10
	users := make([]*models.User, bidders)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("bidder%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.bids.PlaceBid(ctx, item.ID, users[i].ID, float64(110+i*10))
			if err != nil {
				assert.ErrorIs(t, err, apperrors.ErrInvalidBid)
			}
		}(i)
	}
	wg.Wait()

	var accepted []models.Bid
	require.NoError(t, f.db.Where("item_id = ?", item.ID).Order("created_at ASC, amount ASC").Find(&accepted).Error)
	require.NotEmpty(t, accepted)

	for i := 1; i < len(accepted); i++ {
		assert.Greater(t, accepted[i].Amount, accepted[i-1].Amount, "accepted bids must strictly increase")
	}

	stored := f.reload(t, item.ID)
	assert.Equal(t, accepted[len(accepted)-1].Amount, *stored.CurrentBid)
	assert.Equal(t, int64(len(accepted)), f.count(t, &models.Notification{}, "user_id = ?", seller.ID))
}

func TestPlaceBidConcurrentSameAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller")
	item := f.auction(t, seller, 100)

	const bidders = 5
	users := make([]*models.User, bidders)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("bidder%d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.bids.PlaceBid(ctx, item.ID, users[i].ID, 200)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidBid)
			rejected++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, bidders-1, rejected)
	assert.Equal(t, 200.0, *f.reload(t, item.ID).CurrentBid)
	assert.EqualValues(t, 1, f.count(t, &models.Bid{}, "item_id = ?", item.ID))
}

// bumpCurrentBid moves current_bid right before the engine's conditional
// update, the way a competing writer would. It fires on the first times
// updates of the items table.
func bumpCurrentBid(t *testing.T, db *gorm.DB, itemID uuid.UUID, to float64, times int) {
	t.Helper()
	fired := 0
	err := db.Callback().Update().Before("gorm:update").Register("test:bump_current_bid", func(tx *gorm.DB) {
		if tx.Statement.Table != "items" || fired >= times {
			return
		}
		fired++
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE items SET current_bid = ? WHERE id = ?", to, itemID.String())
		require.NoError(t, err)
	})
	require.NoError(t, err)
}

func TestPlaceBidRetriesAfterLostSwap(t *testing.T) {
	f := newFixture(t)
	seller, buyer := f.user(t, "seller"), f.user(t, "buyer")
	item := f.auction(t, seller, 100)
	bumpCurrentBid(t, f.db, item.ID, 120, 1)

	bid, err := f.bids.PlaceBid(context.Background(), item.ID, buyer.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150.0, bid.Amount)
	assert.Equal(t, 150.0, *f.reload(t, item.ID).CurrentBid)
	assert.EqualValues(t, 1, f.count(t, &models.Bid{}, "item_id = ?", item.ID))
	assert.EqualValues(t, 1, f.count(t, &models.Notification{}, "user_id = ?", seller.ID))
}

func TestPlaceBidGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	seller, buyer := f.user(t, "seller"), f.user(t, "buyer")
	item := f.auction(t, seller, 100)
	bumpCurrentBid(t, f.db, item.ID, 120, 100)

	_, err := f.bids.PlaceBid(context.Background(), item.ID, buyer.ID, 150)
	require.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Equal(t, 100.0, *f.reload(t, item.ID).CurrentBid)
	assert.Zero(t, f.count(t, &models.Bid{}, "item_id = ?", item.ID))
	assert.Zero(t, f.count(t, &models.Notification{}, "user_id = ?", seller.ID))
}

func TestListBidsOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, a, b := f.user(t, "seller"), f.user(t, "alice"), f.user(t, "bob")
	item := f.auction(t, seller, 100)

	base := time.Now().Add(-time.Hour)
	rows := []models.Bid{
		{ItemID: item.ID, BidderID: a.ID, Amount: 150, CreatedAt: base.Add(2 * time.Minute)},
		{ItemID: item.ID, BidderID: b.ID, Amount: 150, CreatedAt: base.Add(time.Minute)},
		{ItemID: item.ID, BidderID: a.ID, Amount: 120, CreatedAt: base},
	}
	require.NoError(t, f.db.Create(&rows).Error)

	bids, err := f.bids.ListBids(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, bids, 3)
	assert.Equal(t, "bob Tester", bids[0].BidderName)
	assert.Equal(t, "alice Tester", bids[1].BidderName)
	assert.Equal(t, 120.0, bids[2].Amount)
	assert.True(t, sort.SliceIsSorted(bids, func(i, j int) bool { return bids[i].Amount > bids[j].Amount }))

	empty := f.auction(t, seller, 10)
	highest, err := f.bids.HighestBid(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, highest)

	_, err = f.bids.ListBids(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
