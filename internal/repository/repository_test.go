package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repositories) {
	t.Helper()

	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	require.NoError(t, database.MigrateModels(db, model.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db, New(db)
}

func TestProfileRepository_CreateAndGet(t *testing.T) {
	db, repos := setupTestDB(t)
	ctx := context.Background()

	p := &model.Profile{Email: "  Ana@Example.com ", FullName: "Ana Torres"}
	require.NoError(t, repos.Profiles.Create(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, model.RoleFree, p.Role)

	got, err := repos.Profiles.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	sub, err := repos.Profiles.GetSubscription(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, model.RoleFree, sub.Plan)
	assert.True(t, sub.Active)

	err = repos.Profiles.Create(ctx, &model.Profile{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	db.Model(&model.Profile{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProfileRepository_NotFound(t *testing.T) {
	_, repos := setupTestDB(t)
	ctx := context.Background()

	_, err := repos.Profiles.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = repos.Profiles.UpdateProfile(ctx, "missing", "Nombre", "")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	assert.ErrorIs(t, repos.Profiles.UpdatePassword(ctx, "missing", "hash"), ErrProfileNotFound)
}

func TestProfileRepository_UpdateAndDelete(t *testing.T) {
	db, repos := setupTestDB(t)
	ctx := context.Background()

	p := &model.Profile{Email: "luis@example.com", FullName: "Luis"}
	require.NoError(t, repos.Profiles.Create(ctx, p))

	updated, err := repos.Profiles.UpdateProfile(ctx, p.ID, "Luis Andrade", "0991234567")
	require.NoError(t, err)
	assert.Equal(t, "Luis Andrade", updated.FullName)
	assert.Equal(t, "0991234567", updated.Phone)

	require.NoError(t, repos.Contracts.Create(ctx, &model.Contract{UserID: &p.ID}))
	require.NoError(t, repos.Profiles.Delete(ctx, p.ID))

	var contracts, subs int64
	db.Model(&model.Contract{}).Count(&contracts)
	db.Model(&model.Subscription{}).Count(&subs)
	assert.Zero(t, contracts)
	assert.Zero(t, subs)

	assert.ErrorIs(t, repos.Profiles.Delete(ctx, p.ID), ErrProfileNotFound)
}

func TestContractRepository_Lookups(t *testing.T) {
	_, repos := setupTestDB(t)
	ctx := context.Background()

	c := &model.Contract{PaymentID: "AOEK2J3", DownloadToken: "tok-1", DeliveryEmail: "Comprador@Mail.com"}
	require.NoError(t, repos.Contracts.Create(ctx, c))
	assert.Equal(t, model.StatusDraft, c.Status)
	assert.Equal(t, model.DocVehicleContract, c.Type)

	got, err := repos.Contracts.GetByPaymentID(ctx, "AOEK2J3")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	got, err = repos.Contracts.GetByDownloadToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	list, err := repos.Contracts.ListByDeliveryEmail(ctx, "comprador@mail.com", 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repos.Contracts.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestContractRepository_UpdateStatus(t *testing.T) {
	_, repos := setupTestDB(t)
	ctx := context.Background()

	c := &model.Contract{}
	require.NoError(t, repos.Contracts.Create(ctx, c))

	err := repos.Contracts.UpdateStatus(ctx, c.ID,
		[]model.ContractStatus{model.StatusDraft}, model.StatusPendingPayment,
		map[string]interface{}{"payment_id": "AOE1"})
	require.NoError(t, err)

	got, err := repos.Contracts.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingPayment, got.Status)
	assert.Equal(t, "AOE1", got.PaymentID)

	// second writer loses
	err = repos.Contracts.UpdateStatus(ctx, c.ID, []model.ContractStatus{model.StatusDraft}, model.StatusPendingPayment, nil)
	assert.ErrorIs(t, err, ErrStatusChanged)

	err = repos.Contracts.UpdateStatus(ctx, "missing", []model.ContractStatus{model.StatusDraft}, model.StatusPaid, nil)
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestContractRepository_ListPendingReconciliation(t *testing.T) {
	db, repos := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().Add(-10 * time.Minute)
	stale := &model.Contract{Status: model.StatusPendingPayment, PaymentID: "AOE-STALE"}
	fresh := &model.Contract{Status: model.StatusPendingPayment, PaymentID: "AOE-FRESH"}
	paid := &model.Contract{Status: model.StatusPaid}
	justPaid := &model.Contract{Status: model.StatusPaid}
	done := &model.Contract{Status: model.StatusGenerated, PdfURL: "contracts/x.pdf"}
	for _, c := range []*model.Contract{stale, fresh, paid, justPaid, done} {
		require.NoError(t, repos.Contracts.Create(ctx, c))
	}
	for _, id := range []string{stale.ID, paid.ID, done.ID} {
		require.NoError(t, db.Model(&model.Contract{}).Where("id = ?", id).UpdateColumn("updated_at", old).Error)
	}

	list, err := repos.Contracts.ListPendingReconciliation(ctx, time.Now().Add(-2*time.Minute), 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{stale.ID, paid.ID}, ids)
}

func TestBlogRepository(t *testing.T) {
	_, repos := setupTestDB(t)
	db := repos.Blog.db
	ctx := context.Background()

	now := time.Now()
	posts := []*model.BlogPost{
		{Slug: "compraventa-vehicular", Title: "Compraventa vehicular", Category: "vehicular", Published: true, PublishedAt: ptr(now.Add(-time.Hour))},
		{Slug: "alcabalas-quito", Title: "Alcabalas en Quito", Category: "inmuebles", Published: true, PublishedAt: ptr(now)},
		{Slug: "borrador", Title: "Borrador", Category: "inmuebles"},
	}
	for _, p := range posts {
		require.NoError(t, db.Create(p).Error)
	}

	page, err := repos.Blog.ListPublished(ctx, BlogQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "alcabalas-quito", page.Posts[0].Slug)
	assert.Equal(t, []string{"inmuebles", "vehicular"}, page.Categories)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 1, page.TotalPages)

	page, err = repos.Blog.ListPublished(ctx, BlogQuery{Category: "vehicular", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, MaxPageSize, page.Limit)

	_, err = repos.Blog.GetPublishedBySlug(ctx, "borrador")
	assert.ErrorIs(t, err, ErrPostNotFound)

	p, err := repos.Blog.GetPublishedBySlug(ctx, "compraventa-vehicular")
	require.NoError(t, err)
	assert.Equal(t, "Compraventa vehicular", p.Title)
}

func TestAuditRepository(t *testing.T) {
	_, repos := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repos.Audit.Create(ctx, &model.AuditLog{Action: model.ActionContractCreated, ResourceType: "contract", ResourceID: "c1"}))
	require.NoError(t, repos.Audit.Create(ctx, &model.AuditLog{Action: model.ActionPaymentInitiated, ResourceType: "contract", ResourceID: "c1"}))

	trail, err := repos.Audit.ListByResource(ctx, "contract", "c1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, model.ActionContractCreated, trail[0].Action)
}

func TestContractRepository_UpdateStatus_SQL(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	db, err := database.OpenPostgresConn(conn)
	require.NoError(t, err)
	repo := NewContractRepository(db)

	mock.ExpectExec(`UPDATE "contracts" SET .* WHERE \(?id = \$\d+ AND status IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), "c1",
		[]model.ContractStatus{model.StatusDraft, model.StatusPendingPayment}, model.StatusPaid,
		map[string]interface{}{"amount": model.ContractPrice})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepository_GetByID_SQL(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	db, err := database.OpenPostgresConn(conn)
	require.NoError(t, err)
	repo := NewContractRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE id = \$1 ORDER BY "contracts"."id" LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	_, err = repo.GetByID(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrContractNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr[T any](v T) *T { return &v }
