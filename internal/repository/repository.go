// Package repository holds the gorm-backed stores for every aggregate.
// Each method takes a context and maps gorm.ErrRecordNotFound to a
// package sentinel.
package repository

import (
	"errors"
	"time"

	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrContractNotFound = errors.New("contract not found")
	ErrPostNotFound     = errors.New("blog post not found")
	ErrEmailTaken       = errors.New("email already registered")
	// ErrStatusChanged is returned when a conditional status update finds
	// the row already moved by someone else
	ErrStatusChanged = errors.New("contract status changed concurrently")
)

// track starts a DB timer; call the returned func when the query is done
func track(operation string) func() {
	done := prometheus.TrackDBOperation(operation)
	return func() { done(time.Now()) }
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// Repositories bundles every store over one connection
type Repositories struct {
	Profiles  *ProfileRepository
	Contracts *ContractRepository
	Leads     *LeadRepository
	Sessions  *CalculatorSessionRepository
	Blog      *BlogRepository
	Audit     *AuditRepository
}

// New builds all repositories over db
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Profiles:  NewProfileRepository(db),
		Contracts: NewContractRepository(db),
		Leads:     NewLeadRepository(db),
		Sessions:  NewCalculatorSessionRepository(db),
		Blog:      NewBlogRepository(db),
		Audit:     NewAuditRepository(db),
	}
}
