package localcache

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/labs/fleamarket/internal/models"
)

type DraftKind string

const (
	DraftCreate DraftKind = "CREATE"
	DraftUpdate DraftKind = "UPDATE"
)

// CachedItem is a server item as last seen, or a draft that the server has
// not confirmed yet. An update draft is its own row pointing at TargetID.
type CachedItem struct {
	ID             uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	TargetID       *uuid.UUID      `gorm:"type:varchar(36);index"`
	SellerID       uuid.UUID       `gorm:"type:varchar(36);index"`
	Title          string          `gorm:"size:255"`
	Description    string          `gorm:"type:text"`
	ItemType       models.ItemType `gorm:"size:20"`
	Price          *float64
	StartingBid    *float64
	CurrentBid     *float64
	Status         models.ItemStatus `gorm:"size:20;index"`
	Images         pq.StringArray    `gorm:"type:text"`
	CategoryID     *uint             `gorm:"index"`
	AuctionEndTime *time.Time
	PickupLocation string    `gorm:"size:50"`
	CreatedAt      time.Time `gorm:"index"`

	Draft     bool      `gorm:"index"`
	Kind      DraftKind `gorm:"size:10"`
	Payload   string    `gorm:"type:text"`
	SyncError string    `gorm:"type:text"`
	SyncedAt  time.Time
}

// CachedBid is a confirmed bid, or a draft bid still waiting for the server.
type CachedBid struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	ItemID     uuid.UUID `gorm:"type:varchar(36);index"`
	BidderID   uuid.UUID `gorm:"type:varchar(36)"`
	BidderName string    `gorm:"size:200"`
	Amount     float64
	Timestamp  time.Time `gorm:"index"`
	Draft      bool      `gorm:"index"`
	SyncError  string    `gorm:"type:text"`
}

func FromItem(item models.Item) CachedItem {
	images := item.Images
	if images == nil {
		images = pq.StringArray{}
	}
	return CachedItem{
		ID:             item.ID,
		SellerID:       item.SellerID,
		Title:          item.Title,
		Description:    item.Description,
		ItemType:       item.ItemType,
		Price:          item.Price,
		StartingBid:    item.StartingBid,
		CurrentBid:     item.CurrentBid,
		Status:         item.Status,
		Images:         images,
		CategoryID:     item.CategoryID,
		AuctionEndTime: item.AuctionEndTime,
		PickupLocation: item.PickupLocation,
		CreatedAt:      item.CreatedAt,
	}
}

func (c CachedItem) ToItem() models.Item {
	item := models.Item{
		SellerID:       c.SellerID,
		Title:          c.Title,
		Description:    c.Description,
		ItemType:       c.ItemType,
		Price:          c.Price,
		StartingBid:    c.StartingBid,
		CurrentBid:     c.CurrentBid,
		Status:         c.Status,
		Images:         c.Images,
		CategoryID:     c.CategoryID,
		AuctionEndTime: c.AuctionEndTime,
		PickupLocation: c.PickupLocation,
	}
	item.ID = c.ID
	item.CreatedAt = c.CreatedAt
	return item
}
