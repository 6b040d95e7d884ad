package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is the plan level of a profile
type Role string

const (
	RoleFree    Role = "FREE"
	RolePremium Role = "PREMIUM"
	RoleAdmin   Role = "ADMIN"
)

// Authentication providers
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Profile represents a registered user
type Profile struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"` // empty for OAuth-only accounts
	FullName     string    `json:"fullName" gorm:"size:120"`
	Phone        string    `json:"phone,omitempty" gorm:"size:30"`
	Role         Role      `json:"role" gorm:"size:16;not null;default:FREE"`
	AuthProvider string    `json:"authProvider" gorm:"size:16;not null;default:password"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the id and defaults
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Role == "" {
		p.Role = RoleFree
	}
	if p.AuthProvider == "" {
		p.AuthProvider = ProviderPassword
	}
	return nil
}

// Subscription tracks the plan attached to a profile
type Subscription struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	UserID        string     `json:"userId" gorm:"size:36;uniqueIndex;not null"`
	Plan          Role       `json:"plan" gorm:"size:16;not null;default:FREE"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	Active        bool       `json:"active" gorm:"not null;default:true"`
	PaymentMethod string     `json:"paymentMethod,omitempty" gorm:"size:32"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns the id and defaults
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Plan == "" {
		s.Plan = RoleFree
	}
	if s.StartDate.IsZero() {
		s.StartDate = time.Now()
	}
	return nil
}
