package models

import (
	"github.com/google/uuid"
)

// AuditLog records moderation actions taken by administrators.
type AuditLog struct {
	BaseModel
	UserID       uuid.UUID  `json:"userId" gorm:"type:varchar(36);not null;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resourceId" gorm:"type:varchar(36);index"`
	OldValues    JSONB      `json:"oldValues" gorm:"type:text"`
	NewValues    JSONB      `json:"newValues" gorm:"type:text"`
}
