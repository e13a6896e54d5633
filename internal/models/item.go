package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Item is a listing. Fixed price items carry Price, auctions carry
// StartingBid and CurrentBid. CurrentBid only ever grows and is written by
// the bid engine alone once the item exists.
type Item struct {
	BaseModel
	SellerID       uuid.UUID      `json:"sellerId" gorm:"type:varchar(36);not null;index"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	ItemType       ItemType       `json:"itemType" gorm:"type:varchar(20);not null"`
	Price          *float64       `json:"price,omitempty" gorm:"type:decimal(12,2)"`
	StartingBid    *float64       `json:"startingBid,omitempty" gorm:"type:decimal(12,2)"`
	CurrentBid     *float64       `json:"currentBid,omitempty" gorm:"type:decimal(12,2)"`
	Status         ItemStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	Images         pq.StringArray `json:"images" gorm:"type:text"`
	CategoryID     *uint          `json:"categoryId,omitempty" gorm:"index"`
	AuctionEndTime *time.Time     `json:"auctionEndTime,omitempty"`
	PickupLocation string         `json:"pickupLocation" gorm:"size:50;not null"`

	// Relationships
	Seller   *User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (i *Item) IsAuction() bool {
	return i.ItemType == ItemTypeAuction
}

// MinimumBid is the amount a new bid has to exceed.
func (i *Item) MinimumBid() float64 {
	floor := 0.0
	if i.StartingBid != nil && *i.StartingBid > floor {
		floor = *i.StartingBid
	}
	if i.CurrentBid != nil && *i.CurrentBid > floor {
		floor = *i.CurrentBid
	}
	return floor
}

// SearchCondition matches a SearchPattern against title or description.
const SearchCondition = "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SearchPattern turns a search term into a case-insensitive substring
// pattern. LIKE wildcards in the term match literally.
func SearchPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
