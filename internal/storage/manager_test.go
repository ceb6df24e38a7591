package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/dealflow/internal/db"
	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err, "open db")
	store := NewManager(conn, logger.Nop())
	require.NoError(t, store.InitSchema(context.Background()))
	return store, conn
}

func countRows(t *testing.T, conn *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := conn.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestInitSchemaIdempotent(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InitSchema(ctx))
	require.NoError(t, store.InitSchema(ctx))
	for _, table := range []string{"clients", "proposals", "items"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestSaveClientInsertThenUpdate(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()

	c, err := agg.CreateClient("Acme", "123", "")
	require.NoError(t, err)
	require.NoError(t, store.SaveClient(ctx, c))

	c.Name = "Acme Corp"
	c.Contact = "ana@acme.test"
	require.NoError(t, store.SaveClient(ctx, c))

	assert.EqualValues(t, 1, countRows(t, conn, &db.ClientRecord{}, ""))
	var rec db.ClientRecord
	require.NoError(t, conn.First(&rec, c.ID).Error)
	assert.Equal(t, "Acme Corp", rec.Name)
	assert.Equal(t, "123", deref(rec.Document))
	assert.Equal(t, "ana@acme.test", deref(rec.Contact))
}

func TestSaveProposalInsertThenUpdate(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()

	acme, _ := agg.CreateClient("Acme", "", "")
	globex, _ := agg.CreateClient("Globex", "", "")
	require.NoError(t, store.SaveClient(ctx, acme))
	require.NoError(t, store.SaveClient(ctx, globex))

	p := agg.CreateProposal(acme, models.ProposalOptions{Title: "Website"})
	require.NoError(t, store.SaveProposal(ctx, p))

	var rec db.ProposalRecord
	require.NoError(t, conn.First(&rec, p.ID).Error)
	assert.Equal(t, "draft", rec.Status)
	assert.Nil(t, rec.DiscountKind)
	assert.Nil(t, rec.ExpiresAt)

	expires := time.Date(2030, 1, 31, 0, 0, 0, 0, time.Local)
	p.Client = globex
	p.Title = "Website v2"
	p.ExpiresAt = &expires
	p.Owner = "bruno"
	require.NoError(t, p.SetStatus("sent"))
	p.SetFixedDiscount(25)
	require.NoError(t, store.SaveProposal(ctx, p))

	assert.EqualValues(t, 1, countRows(t, conn, &db.ProposalRecord{}, ""))
	rec = db.ProposalRecord{}
	require.NoError(t, conn.First(&rec, p.ID).Error)
	assert.Equal(t, globex.ID, rec.ClientID)
	assert.Equal(t, "Website v2", rec.Title)
	assert.Equal(t, "sent", rec.Status)
	assert.Equal(t, "2030-01-31", deref(rec.ExpiresAt))
	assert.Equal(t, "bruno", deref(rec.Owner))
	assert.Equal(t, "fixed", deref(rec.DiscountKind))
	assert.Equal(t, 25.0, derefFloat(rec.DiscountAmount))
	assert.Equal(t, 0.0, derefFloat(rec.DiscountPercentage))
	assert.Equal(t, p.CreatedAt().Format(db.CreatedAtLayout), rec.Created)
}

func TestRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()

	c, _ := agg.CreateClient("Acme", "12.345.678/0001-90", "ana@acme.test")
	expires := time.Date(2031, 5, 20, 0, 0, 0, 0, time.Local)
	p := agg.CreateProposal(c, models.ProposalOptions{ExpiresAt: &expires, Owner: "ana", PaymentTerms: "30 days"})
	p.AddItem(models.LineItem{Description: "Widget", Quantity: 3, UnitPrice: 10})
	p.AddItem(models.LineItem{Description: "Gadget", Quantity: 1, UnitPrice: 99.9})
	p.AddItem(models.LineItem{Description: "Refund", Quantity: -1, UnitPrice: 5})
	p.SetPercentageDiscount(12.5)
	require.NoError(t, p.SetStatus("accepted"))

	require.NoError(t, store.SaveClient(ctx, c))
	require.NoError(t, store.SaveProposal(ctx, p))
	require.NoError(t, store.SyncItems(ctx, p))

	fresh := models.NewProposalManager()
	require.NoError(t, store.LoadAll(ctx, fresh))

	require.Len(t, fresh.Clients(), 1)
	require.Len(t, fresh.Proposals(), 1)
	got := fresh.Proposals()[0]
	gotClient := fresh.Clients()[0]

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, models.StatusAccepted, got.Status())
	assert.Same(t, gotClient, got.Client)
	assert.Equal(t, *c, *gotClient)
	assert.Equal(t, p.Items(), got.Items())
	assert.Equal(t, p.Discount(), got.Discount())
	assert.InDelta(t, p.GrandTotal(), got.GrandTotal(), 1e-9)
	assert.True(t, got.CreatedAt().Equal(p.CreatedAt().Truncate(time.Second)),
		"created %v, want %v", got.CreatedAt(), p.CreatedAt())
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expires))
	assert.Equal(t, "ana", got.Owner)
	assert.Equal(t, "30 days", got.PaymentTerms)
}

func TestLoadAllAdvancesAllocators(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()

	var last *models.Client
	for _, name := range []string{"A", "B", "C"} {
		c, _ := agg.CreateClient(name, "", "")
		require.NoError(t, store.SaveClient(ctx, c))
		last = c
	}
	p := agg.CreateProposal(last, models.ProposalOptions{})
	require.NoError(t, store.SaveProposal(ctx, p))

	fresh := models.NewProposalManager()
	require.NoError(t, store.LoadAll(ctx, fresh))

	c, err := fresh.CreateClient("D", "", "")
	require.NoError(t, err)
	assert.Greater(t, c.ID, last.ID)
	assert.Greater(t, fresh.CreateProposal(c, models.ProposalOptions{}).ID, p.ID)
}

func TestLoadAllEmptyDatabaseKeepsAllocators(t *testing.T) {
	store, _ := setupTestStore(t)
	agg := models.NewProposalManager()
	_, _ = agg.CreateClient("unsaved", "", "")

	require.NoError(t, store.LoadAll(context.Background(), agg))
	assert.Empty(t, agg.Clients())
	assert.Equal(t, uint(2), agg.NextClientID())
}

func TestSyncItemsReplacesInOrder(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()
	c, _ := agg.CreateClient("Acme", "", "")
	p := agg.CreateProposal(c, models.ProposalOptions{})
	require.NoError(t, store.SaveClient(ctx, c))
	require.NoError(t, store.SaveProposal(ctx, p))

	for i := 1; i <= 3; i++ {
		p.AddItem(models.LineItem{Description: fmt.Sprintf("item %d", i), Quantity: i, UnitPrice: 1})
	}
	require.NoError(t, store.SyncItems(ctx, p))
	require.NoError(t, p.RemoveItem(0))
	p.AddItem(models.LineItem{Description: "item 4", Quantity: 4, UnitPrice: 1})
	require.NoError(t, store.SyncItems(ctx, p))

	var rows []db.ItemRecord
	require.NoError(t, conn.Where("proposal_id = ?", p.ID).Order("id").Find(&rows).Error)
	var got []string
	for _, r := range rows {
		got = append(got, r.Description)
	}
	assert.Equal(t, []string{"item 2", "item 3", "item 4"}, got)

	require.NoError(t, p.RemoveItem(0))
	require.NoError(t, p.RemoveItem(0))
	require.NoError(t, p.RemoveItem(0))
	require.NoError(t, store.SyncItems(ctx, p))
	assert.Zero(t, countRows(t, conn, &db.ItemRecord{}, "proposal_id = ?", p.ID))
}

func TestDeleteProposalCascadesToItems(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()
	c, _ := agg.CreateClient("Acme", "", "")
	doomed := agg.CreateProposal(c, models.ProposalOptions{})
	kept := agg.CreateProposal(c, models.ProposalOptions{})
	for _, p := range []*models.Proposal{doomed, kept} {
		p.AddItem(models.LineItem{Description: "x", Quantity: 1, UnitPrice: 1})
		p.AddItem(models.LineItem{Description: "y", Quantity: 2, UnitPrice: 2})
		require.NoError(t, store.SaveProposal(ctx, p))
		require.NoError(t, store.SyncItems(ctx, p))
	}
	require.NoError(t, store.SaveClient(ctx, c))

	require.NoError(t, store.DeleteProposal(ctx, agg, doomed.ID))

	assert.Zero(t, countRows(t, conn, &db.ItemRecord{}, "proposal_id = ?", doomed.ID))
	assert.Zero(t, countRows(t, conn, &db.ProposalRecord{}, "id = ?", doomed.ID))
	assert.EqualValues(t, 2, countRows(t, conn, &db.ItemRecord{}, "proposal_id = ?", kept.ID))
	_, ok := agg.ProposalByID(doomed.ID)
	assert.False(t, ok)
	_, ok = agg.ProposalByID(kept.ID)
	assert.True(t, ok)
}

func TestDeleteClientLeavesDanglingProposalSkippedOnLoad(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()
	gone, _ := agg.CreateClient("Gone", "", "")
	stays, _ := agg.CreateClient("Stays", "", "")
	ok := agg.CreateProposal(stays, models.ProposalOptions{Title: "ok"})
	orphan := agg.CreateProposal(gone, models.ProposalOptions{Title: "orphan"})
	orphan.AddItem(models.LineItem{Description: "x", Quantity: 1, UnitPrice: 1})
	require.NoError(t, store.SaveAll(ctx, agg))

	require.NoError(t, store.DeleteClient(ctx, agg, gone.ID))
	_, found := agg.ClientByID(gone.ID)
	assert.False(t, found)
	assert.EqualValues(t, 1, countRows(t, conn, &db.ProposalRecord{}, "id = ?", orphan.ID))

	fresh := models.NewProposalManager()
	require.NoError(t, store.LoadAll(ctx, fresh), "dangling references must not fail the load")
	require.Len(t, fresh.Proposals(), 1)
	assert.Equal(t, ok.ID, fresh.Proposals()[0].ID)
	_, found = fresh.ProposalByID(orphan.ID)
	assert.False(t, found)

	// the orphan holds the highest id; it must not be handed out again
	assert.Greater(t, fresh.NextProposalID(), orphan.ID)
	assert.Greater(t, fresh.NextClientID(), stays.ID)
}

func TestLoadAllSkipsOrphanItems(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, conn.Create(&db.ItemRecord{ProposalID: 404, Description: "orphan", Quantity: 1, UnitPrice: 1}).Error)

	agg := models.NewProposalManager()
	require.NoError(t, store.LoadAll(ctx, agg))
	assert.Empty(t, agg.Proposals())
}

func TestLoadAllFallbacks(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, conn.Create(&db.ClientRecord{ID: 1, Name: "Legacy"}).Error)

	bad := "31/12/2030"
	pctKind, fixedKind := "%", "R"
	pct, amount := 15.0, 40.0
	rows := []db.ProposalRecord{
		{ID: 1, ClientID: 1, Title: "bad dates", Created: "yesterday", Status: "sent", ExpiresAt: &bad},
		{ID: 2, ClientID: 1, Title: "legacy pct", Created: "2024-02-29 23:59:58", Status: "ACCEPTED", DiscountKind: &pctKind, DiscountPercentage: &pct},
		{ID: 3, ClientID: 1, Title: "legacy fixed", Created: "2024-01-01 00:00:00", Status: "aceita", DiscountKind: &fixedKind, DiscountAmount: &amount},
	}
	for _, r := range rows {
		require.NoError(t, conn.Create(&r).Error)
	}

	before := time.Now().Add(-time.Second)
	agg := models.NewProposalManager()
	require.NoError(t, store.LoadAll(ctx, agg))
	require.Len(t, agg.Proposals(), 3)

	p1, _ := agg.ProposalByID(1)
	assert.False(t, p1.CreatedAt().Before(before), "unparseable creation time falls back to now")
	assert.Nil(t, p1.ExpiresAt, "unparseable expiration means no expiration")
	assert.Equal(t, models.StatusSent, p1.Status())

	p2, _ := agg.ProposalByID(2)
	assert.True(t, time.Date(2024, 2, 29, 23, 59, 58, 0, time.Local).Equal(p2.CreatedAt()))
	assert.Equal(t, models.StatusAccepted, p2.Status())
	assert.Equal(t, models.PercentageDiscount(15), p2.Discount())

	p3, _ := agg.ProposalByID(3)
	assert.Equal(t, models.StatusDraft, p3.Status(), "unknown status is never held in memory")
	assert.Equal(t, models.FixedDiscount(40), p3.Discount())
}

func TestLoadAllFailureLeavesAggregateUntouched(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()
	c, _ := agg.CreateClient("Acme", "", "")
	require.NoError(t, store.SaveClient(ctx, c))

	require.NoError(t, conn.Migrator().DropTable(&db.ItemRecord{}))
	err := store.LoadAll(ctx, agg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, []*models.Client{c}, agg.Clients())
}

func TestPersistenceErrorsKeepCause(t *testing.T) {
	store, conn := setupTestStore(t)
	require.NoError(t, conn.Migrator().DropTable(&db.ClientRecord{}))

	agg := models.NewProposalManager()
	c, _ := agg.CreateClient("Acme", "", "")
	err := store.SaveClient(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "save client", opErr.Op)
	assert.NotNil(t, opErr.Unwrap())
}

func TestSaveAll(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	agg := models.NewProposalManager()
	a, _ := agg.CreateClient("A", "", "")
	b, _ := agg.CreateClient("B", "", "")
	pa := agg.CreateProposal(a, models.ProposalOptions{})
	pa.AddItem(models.LineItem{Description: "x", Quantity: 1, UnitPrice: 10})
	pb := agg.CreateProposal(b, models.ProposalOptions{})
	pb.AddItem(models.LineItem{Description: "y", Quantity: 2, UnitPrice: 10})

	require.NoError(t, store.SaveAll(ctx, agg))
	require.NoError(t, store.SaveAll(ctx, agg))

	assert.EqualValues(t, 2, countRows(t, conn, &db.ClientRecord{}, ""))
	assert.EqualValues(t, 2, countRows(t, conn, &db.ProposalRecord{}, ""))
	assert.EqualValues(t, 2, countRows(t, conn, &db.ItemRecord{}, ""))
}
