package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid is an append-only offer on an auction item.
type Bid struct {
	ID        uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	ItemID    uuid.UUID `json:"itemId" gorm:"type:varchar(36);not null;index"`
	BidderID  uuid.UUID `json:"bidderId" gorm:"type:varchar(36);not null;index"`
	Amount    float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"index"`

	Bidder *User `json:"-" gorm:"foreignKey:BidderID"`
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BidOrder is the display order: highest first, earliest first on ties.
const BidOrder = "amount DESC, created_at ASC, id ASC"

// MaxAmount is the largest value a decimal(12,2) column holds.
const MaxAmount = 9999999999.99

// IsCentAmount reports whether v is a whole number of cents, so that storing
// it in a decimal(12,2) column does not round it.
func IsCentAmount(v float64) bool {
	return math.Round(v*100)/100 == v
}
