package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/model"
	"gorm.io/gorm"
)

// LeadRepository stores captured leads
type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create inserts a lead with a normalised email
func (r *LeadRepository) Create(ctx context.Context, l *model.Lead) error {
	defer track("lead_insert")()

	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// CalculatorSessionRepository stores anonymous calculator runs
type CalculatorSessionRepository struct {
	db *gorm.DB
}

func NewCalculatorSessionRepository(db *gorm.DB) *CalculatorSessionRepository {
	return &CalculatorSessionRepository{db: db}
}

func (r *CalculatorSessionRepository) Create(ctx context.Context, s *model.CalculatorSession) error {
	defer track("calculator_session_insert")()

	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to save calculator session: %w", err)
	}
	return nil
}

// AuditRepository appends audit entries
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, a *model.AuditLog) error {
	defer track("audit_insert")()

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// ListByResource returns the audit trail of one resource, oldest first
func (r *AuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string) ([]model.AuditLog, error) {
	defer track("audit_query")()

	var out []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return out, nil
}
