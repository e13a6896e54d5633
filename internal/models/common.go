package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the uuid key and timestamps. The key is generated in Go
// so the schema stays portable across postgres, mysql and sqlite.
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB stores a JSON object in a text column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
}

// Enums
type UserRole string

const (
	RoleBuyer  UserRole = "BUYER"
	RoleSeller UserRole = "SELLER"
	RoleAdmin  UserRole = "ADMIN"
)

type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusApproved UserStatus = "APPROVED"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusPending || s == UserStatusApproved
}

type ItemType string

const (
	ItemTypeFixedPrice ItemType = "FIXED_PRICE"
	ItemTypeAuction    ItemType = "AUCTION"
)

type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "PENDING"
	ItemStatusApproved ItemStatus = "APPROVED"
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusSold     ItemStatus = "SOLD"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusActive, ItemStatusSold:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationSystem NotificationType = "SYSTEM"
	NotificationBid    NotificationType = "BID"
	NotificationOrder  NotificationType = "ORDER"
	NotificationInfo   NotificationType = "INFO"
)

// Pickup points on campus.
const (
	PickupSTC           = "STC"
	PickupPhase1Gazebos = "Phase1 Gazebos"
	PickupPhase2Gazebos = "Phase2 Gazebos"
	PickupParkingLot    = "Parking Lot"
)

var PickupLocations = []string{PickupSTC, PickupPhase1Gazebos, PickupPhase2Gazebos, PickupParkingLot}
