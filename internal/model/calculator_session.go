package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CalculatorSession stores one anonymous calculator run
type CalculatorSession struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	VisitorID string         `json:"visitorId,omitempty" gorm:"size:64;index"`
	Type      string         `json:"type" gorm:"size:40;not null"`
	Inputs    datatypes.JSON `json:"inputs"`
	Result    datatypes.JSON `json:"result"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s *CalculatorSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
