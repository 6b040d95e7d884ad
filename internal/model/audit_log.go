package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audited actions
const (
	ActionContractCreated    = "contract.created"
	ActionPaymentInitiated   = "payment.initiated"
	ActionPaymentConfirmed   = "payment.confirmed"
	ActionDocumentGenerated  = "document.generated"
	ActionDocumentDownloaded = "document.downloaded"
	ActionProfileDeleted     = "profile.deleted"
)

// AuditLog records a sensitive action for later review
type AuditLog struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	UserID       *string        `json:"userId,omitempty" gorm:"size:36;index"`
	Action       string         `json:"action" gorm:"size:64;index;not null"`
	ResourceType string         `json:"resourceType" gorm:"size:40"`
	ResourceID   string         `json:"resourceId" gorm:"size:64;index"`
	IPAddress    string         `json:"ipAddress,omitempty" gorm:"size:64"`
	UserAgent    string         `json:"userAgent,omitempty" gorm:"size:512"`
	Details      datatypes.JSON `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}
