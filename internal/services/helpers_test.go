package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/database/dbtest"
	"github.com/labs/fleamarket/internal/models"
)

type fixture struct {
	db            *gorm.DB
	notifications *NotificationService
	bids          *BidService
	items         *ItemService
	users         *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	notifications := NewNotificationService(db, 50)
	return &fixture{
		db:            db,
		notifications: notifications,
		bids:          NewBidService(db, notifications, 5),
		items:         NewItemService(db, notifications, true, 100),
		users:         NewUserService(db, notifications),
	}
}

func (f *fixture) user(t *testing.T, first string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        first + "-" + uuid.NewString()[:8] + "@strathmore.edu",
		FirstName:    first,
		LastName:     "Tester",
		PasswordHash: "x",
		Role:         models.RoleBuyer,
		Status:       models.UserStatusApproved,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) auction(t *testing.T, seller *models.User, startingBid float64) *models.Item {
	t.Helper()
	item := &models.Item{
		SellerID:       seller.ID,
		Title:          "Desk lamp",
		Description:    "Warm light",
		ItemType:       models.ItemTypeAuction,
		StartingBid:    lo.ToPtr(startingBid),
		CurrentBid:     lo.ToPtr(startingBid),
		Status:         models.ItemStatusActive,
		Images:         pq.StringArray{},
		PickupLocation: models.PickupSTC,
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *fixture) fixedPrice(t *testing.T, seller *models.User, price float64) *models.Item {
	t.Helper()
	item := &models.Item{
		SellerID:       seller.ID,
		Title:          "Calculus textbook",
		ItemType:       models.ItemTypeFixedPrice,
		Price:          lo.ToPtr(price),
		Status:         models.ItemStatusActive,
		Images:         pq.StringArray{},
		PickupLocation: models.PickupSTC,
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) models.Item {
	t.Helper()
	var item models.Item
	require.NoError(t, f.db.Unscoped().First(&item, "id = ?", id).Error)
	return item
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
