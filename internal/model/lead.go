package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lead sources
const (
	LeadSourceCalculator = "calculadora"
	LeadSourceContact    = "contacto"
	LeadSourceMagnet     = "lead_magnet"
	LeadSourceBot        = "bot"
)

// Lead is a captured contact from a form, a calculator or the bot
type Lead struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	Email          string         `json:"email" gorm:"size:255;index;not null"`
	Phone          string         `json:"phone,omitempty" gorm:"size:30"`
	Name           string         `json:"name,omitempty" gorm:"size:120"`
	Source         string         `json:"source" gorm:"size:40;index;not null"`
	CalculatorType string         `json:"calculatorType,omitempty" gorm:"size:40"`
	Data           datatypes.JSON `json:"data,omitempty"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	Status         string         `json:"status" gorm:"size:20;not null;default:new"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// BeforeCreate assigns the id and the initial status
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = newID()
	}
	if l.Status == "" {
		l.Status = "new"
	}
	return nil
}
