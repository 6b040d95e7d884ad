package audit

import (
	"context"
	"testing"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecorder_Record(t *testing.T) {
	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	repo := repository.NewAuditRepository(db)
	rec := NewRecorder(repo, zap.NewNop())

	uid := "user-1"
	ctx := WithRequest(context.Background(), "10.0.0.1", "curl/8", &uid)
	rec.Record(ctx, Entry{
		Action:       model.ActionContractCreated,
		ResourceType: "contract",
		ResourceID:   "c-1",
		Details:      map[string]interface{}{"type": "VEHICLE_CONTRACT"},
	})

	rows, err := repo.ListByResource(context.Background(), "contract", "c-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10.0.0.1", rows[0].IPAddress)
	assert.Equal(t, "curl/8", rows[0].UserAgent)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, "user-1", *rows[0].UserID)
	assert.JSONEq(t, `{"type":"VEHICLE_CONTRACT"}`, string(rows[0].Details))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), Entry{Action: "x"})
}
