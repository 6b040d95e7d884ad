package model

import (
	"github.com/google/uuid"
)

// newID returns a random UUID string for primary keys
func newID() string {
	return uuid.NewString()
}

// NewDownloadToken creates a single-use token for document downloads
func NewDownloadToken() string {
	return uuid.NewString()
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},
		&Subscription{},
		&Contract{},
		&Lead{},
		&CalculatorSession{},
		&BlogPost{},
		&AuditLog{},
	}
}
