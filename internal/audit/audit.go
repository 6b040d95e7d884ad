// Package audit records sensitive actions. Writes never fail the caller.
package audit

import (
	"context"
	"encoding/json"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type requestKey struct{}

type requestInfo struct {
	ip        string
	userAgent string
	userID    *string
}

// WithRequest attaches the caller's address, agent and user to ctx
func WithRequest(ctx context.Context, ip, userAgent string, userID *string) context.Context {
	return context.WithValue(ctx, requestKey{}, requestInfo{ip: ip, userAgent: userAgent, userID: userID})
}

// Entry is one audited action
type Entry struct {
	UserID       *string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]interface{}
}

// Recorder writes audit entries
type Recorder struct {
	repo *repository.AuditRepository
	log  *zap.Logger
}

func NewRecorder(repo *repository.AuditRepository, log *zap.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Record stores e, filling request details from ctx
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil {
		return
	}
	row := &model.AuditLog{
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
	}
	if info, ok := ctx.Value(requestKey{}).(requestInfo); ok {
		row.IPAddress = info.ip
		row.UserAgent = info.userAgent
		if row.UserID == nil {
			row.UserID = info.userID
		}
	}
	if len(e.Details) > 0 {
		if raw, err := json.Marshal(e.Details); err == nil {
			row.Details = datatypes.JSON(raw)
		}
	}
	if err := r.repo.Create(ctx, row); err != nil {
		r.log.Warn("Failed to write audit log",
			zap.String("action", e.Action),
			zap.String("resource_id", e.ResourceID),
			zap.Error(err))
	}
}
