package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    uuid.UUID        `json:"userId" gorm:"type:varchar(36);not null;index"`
	Title     string           `json:"title" gorm:"size:255;not null"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	Type      NotificationType `json:"type" gorm:"type:varchar(20);not null"`
	Read      bool             `json:"read" gorm:"column:is_read;not null;default:false"`
	ItemID    *uuid.UUID       `json:"itemId,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt time.Time        `json:"timestamp" gorm:"index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
