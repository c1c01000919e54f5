package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tillpoint/internal/bill/domain"
	"github.com/smallbiznis/tillpoint/internal/bill/repository"
	catalogdomain "github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/fallback"
	"github.com/smallbiznis/tillpoint/internal/migration"
	sequencedomain "github.com/smallbiznis/tillpoint/internal/sequence/domain"
	sequencerepository "github.com/smallbiznis/tillpoint/internal/sequence/repository"
	sequenceservice "github.com/smallbiznis/tillpoint/internal/sequence/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeItemLookup struct {
	items map[string]catalogdomain.ItemInfo
	err   error
}

func (f *fakeItemLookup) Resolve(ctx context.Context, itemCodes []string) (map[string]catalogdomain.ItemInfo, error) {
	_ = ctx
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]catalogdomain.ItemInfo)
	for _, code := range itemCodes {
		if info, ok := f.items[code]; ok {
			out[code] = info
		}
	}
	return out, nil
}

type billTestEnv struct {
	conn     *gorm.DB
	svc      domain.Service
	seq      sequencedomain.Service
	fallback *fallback.Store
	lookup   *fakeItemLookup
}

func setupBillTest(t *testing.T) *billTestEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Bootstrap(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	policy := config.StaticRegisterPolicyHolder(config.RegisterPolicy{
		FallbackCapacity: 16,
		MaxLinesPerBill:  5,
		SequenceRetries:  3,
	})

	seqSvc := sequenceservice.New(sequenceservice.Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Repo:   sequencerepository.Provide(),
		Policy: policy,
	})

	lookup := &fakeItemLookup{items: map[string]catalogdomain.ItemInfo{
		"SKU-1": {Name: "Soap", Price: decimal.NewFromInt(12)},
		"SKU-2": {Name: "Towel", Price: decimal.NewFromInt(45)},
	}}
	store := fallback.New(policy)

	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Sequence: sequencerepository.Provide(),
		Items:    lookup,
		Fallback: store,
		Policy:   policy,
	})

	return &billTestEnv{conn: conn, svc: svc, seq: seqSvc, fallback: store, lookup: lookup}
}

func cartItems() []domain.ItemInput {
	return []domain.ItemInput{
		{ItemCode: "SKU-1", Quantity: 2, Rate: decimal.NewFromInt(12)},
		{ItemCode: "SKU-2", Quantity: 1, Rate: decimal.NewFromInt(45)},
	}
}

func (e *billTestEnv) closeStore(t *testing.T) {
	t.Helper()
	sqlDB, err := e.conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestSyncPersistsDraft(t *testing.T) {
	env := setupBillTest(t)

	result, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo:       1,
		LocationCode: "LOC001",
		Items:        cartItems(),
	})
	require.NoError(t, err)
	assert.True(t, result.Persisted)

	var state string
	require.NoError(t, env.conn.Raw(
		`SELECT state FROM bill_headers WHERE location_code = ? AND bill_no = ?`, "LOC001", 1,
	).Scan(&state).Error)
	assert.Equal(t, domain.StateDraft, state)

	var count int64
	require.NoError(t, env.conn.Raw(
		`SELECT COUNT(*) FROM bill_lines WHERE location_code = ? AND bill_no = ?`, "LOC001", 1,
	).Scan(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSyncEmptyItemsClearsCart(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)

	result, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo: 1, LocationCode: "LOC001",
	})
	require.NoError(t, err)
	assert.True(t, result.Persisted)

	var count int64
	require.NoError(t, env.conn.Raw(
		`SELECT COUNT(*) FROM bill_lines WHERE location_code = ? AND bill_no = ?`, "LOC001", 1,
	).Scan(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSyncRejectsTooManyLines(t *testing.T) {
	env := setupBillTest(t)

	items := make([]domain.ItemInput, 6)
	for i := range items {
		items[i] = domain.ItemInput{ItemCode: "SKU-1", Quantity: 1, Rate: decimal.NewFromInt(1)}
	}
	_, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo: 1, LocationCode: "LOC001", Items: items,
	})
	assert.ErrorIs(t, err, domain.ErrTooManyLines)
}

func TestHoldRequiresItems(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Hold(context.Background(), domain.HoldRequest{
		BillNo: 1, LocationCode: "LOC001",
	})
	assert.ErrorIs(t, err, domain.ErrItemsRequired)
}

func TestHoldThenGetDecoratesLines(t *testing.T) {
	env := setupBillTest(t)

	result, err := env.svc.Hold(context.Background(), domain.HoldRequest{
		BillNo:       1,
		LocationCode: "LOC001",
		CounterCode:  "C01",
		CustomerCode: "CUST-9",
		Items:        cartItems(),
	})
	require.NoError(t, err)
	assert.True(t, result.Persisted)

	bill, err := env.svc.Get(context.Background(), 1, "LOC001")
	require.NoError(t, err)
	assert.Equal(t, "C01", bill.CounterCode)
	assert.Equal(t, "CUST-9", bill.CustomerCode)
	assert.True(t, bill.Persisted)
	require.Len(t, bill.Items, 2)
	assert.Equal(t, 1, bill.Items[0].Slno)
	assert.Equal(t, "Soap", bill.Items[0].ItemName)
	assert.True(t, decimal.NewFromInt(12).Equal(bill.Items[0].Price))
	assert.Equal(t, "Towel", bill.Items[1].ItemName)
}

func TestHoldAppendsAudit(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Hold(context.Background(), domain.HoldRequest{
		BillNo:       1,
		LocationCode: "LOC001",
		CounterCode:  "C01",
		Discount:     decimal.NewFromInt(9),
		Items:        cartItems(),
	})
	require.NoError(t, err)

	type auditRow struct {
		Reference string
		NetAmount decimal.Decimal
	}
	var row auditRow
	require.NoError(t, env.conn.Raw(
		`SELECT reference, net_amount FROM hold_audits WHERE location_code = ? AND bill_no = ?`, "LOC001", 1,
	).Scan(&row).Error)
	assert.NotEmpty(t, row.Reference)
	// 2*12 + 1*45 - 9
	assert.True(t, decimal.NewFromInt(60).Equal(row.NetAmount), "got %s", row.NetAmount)
}

func TestHoldAuditReferencesAreUnique(t *testing.T) {
	env := setupBillTest(t)

	// Back-to-back holds can land on the same clock reading.
	for billNo := int64(1); billNo <= 5; billNo++ {
		_, err := env.svc.Hold(context.Background(), domain.HoldRequest{
			BillNo: billNo, LocationCode: "LOC001", Items: cartItems(),
		})
		require.NoError(t, err)
	}

	var refs []string
	require.NoError(t, env.conn.Raw(
		`SELECT reference FROM hold_audits WHERE location_code = ?`, "LOC001",
	).Scan(&refs).Error)
	require.Len(t, refs, 5)

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestRetrieveFlipsHeldToDraft(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Hold(context.Background(), domain.HoldRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)

	bill, err := env.svc.Retrieve(context.Background(), 1, "LOC001")
	require.NoError(t, err)
	require.Len(t, bill.Items, 2)

	var state string
	require.NoError(t, env.conn.Raw(
		`SELECT state FROM bill_headers WHERE location_code = ? AND bill_no = ?`, "LOC001", 1,
	).Scan(&state).Error)
	assert.Equal(t, domain.StateDraft, state)

	// No longer held, so a second retrieve finds nothing.
	_, err = env.svc.Retrieve(context.Background(), 1, "LOC001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrieveDraftBillNotFound(t *testing.T) {
	env := setupBillTest(t)

	// Synced but never held: the header exists in DRAFT only.
	_, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)

	bill, err := env.svc.Retrieve(context.Background(), 1, "LOC001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, bill)

	// The draft row itself is untouched.
	var state string
	require.NoError(t, env.conn.Raw(
		`SELECT state FROM bill_headers WHERE location_code = ? AND bill_no = ?`, "LOC001", 1,
	).Scan(&state).Error)
	assert.Equal(t, domain.StateDraft, state)
}

func TestRetrieveUnknownBillNotFound(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Retrieve(context.Background(), 42, "LOC001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListHeldNewestFirst(t *testing.T) {
	env := setupBillTest(t)

	for billNo := int64(1); billNo <= 3; billNo++ {
		_, err := env.svc.Hold(context.Background(), domain.HoldRequest{
			BillNo: billNo, LocationCode: "LOC001", Items: cartItems(),
		})
		require.NoError(t, err)
	}

	bills, err := env.svc.ListHeld(context.Background(), "LOC001")
	require.NoError(t, err)
	require.Len(t, bills, 3)
	assert.Equal(t, int64(3), bills[0].BillNo)
	assert.Equal(t, int64(1), bills[2].BillNo)

	other, err := env.svc.ListHeld(context.Background(), "LOC999")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListHeldMergesMirrorInOrder(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Hold(context.Background(), domain.HoldRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)

	// A mirror-only bill held later than the durable one must lead the list.
	env.fallback.Put(fallback.Snapshot{
		BillNo:       2,
		LocationCode: "LOC001",
		State:        domain.StateHeld,
		HeldAt:       time.Now().UTC().Add(time.Minute),
	})

	bills, err := env.svc.ListHeld(context.Background(), "LOC001")
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, int64(2), bills[0].BillNo)
	assert.False(t, bills[0].Persisted)
	assert.Equal(t, int64(1), bills[1].BillNo)
	assert.True(t, bills[1].Persisted)
}

func TestPayInsertsSettledDetailsAndMarksSequence(t *testing.T) {
	env := setupBillTest(t)

	billNo, err := env.seq.AllocateNext(context.Background(), "C01")
	require.NoError(t, err)

	result, err := env.svc.Pay(context.Background(), domain.PayRequest{
		BillNo: billNo, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)

	var settled string
	require.NoError(t, env.conn.Raw(
		`SELECT settled FROM bill_sequence WHERE bill_no = ?`, billNo,
	).Scan(&settled).Error)
	assert.Equal(t, "y", settled)
}

func TestPayTwiceConflicts(t *testing.T) {
	env := setupBillTest(t)

	billNo, err := env.seq.AllocateNext(context.Background(), "C01")
	require.NoError(t, err)

	_, err = env.svc.Pay(context.Background(), domain.PayRequest{
		BillNo: billNo, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)

	_, err = env.svc.Pay(context.Background(), domain.PayRequest{
		BillNo: billNo, LocationCode: "LOC001", Items: cartItems(),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)

	// The losing settlement rolls back; no duplicate detail rows appear.
	var count int64
	require.NoError(t, env.conn.Raw(
		`SELECT COUNT(*) FROM settled_details WHERE location_code = ? AND bill_no = ?`, "LOC001", billNo,
	).Scan(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestPayUnallocatedBill(t *testing.T) {
	env := setupBillTest(t)

	_, err := env.svc.Pay(context.Background(), domain.PayRequest{
		BillNo: 99, LocationCode: "LOC001", Items: cartItems(),
	})
	assert.ErrorIs(t, err, domain.ErrNotAllocated)
}

func TestSyncFallsBackWhenStoreDown(t *testing.T) {
	env := setupBillTest(t)
	env.closeStore(t)

	result, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Equal(t, 1, env.fallback.Len())
}

func TestHoldFallsBackAndServesReads(t *testing.T) {
	env := setupBillTest(t)
	env.closeStore(t)

	result, err := env.svc.Hold(context.Background(), domain.HoldRequest{
		BillNo: 1, LocationCode: "LOC001", CounterCode: "C01", Items: cartItems(),
	})
	require.NoError(t, err)
	assert.False(t, result.Persisted)

	bills, err := env.svc.ListHeld(context.Background(), "LOC001")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.False(t, bills[0].Persisted)

	bill, err := env.svc.Get(context.Background(), 1, "LOC001")
	require.NoError(t, err)
	assert.Equal(t, "C01", bill.CounterCode)

	retrieved, err := env.svc.Retrieve(context.Background(), 1, "LOC001")
	require.NoError(t, err)
	require.Len(t, retrieved.Items, 2)

	// Retrieval consumes the mirror snapshot.
	_, err = env.svc.Get(context.Background(), 1, "LOC001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPayNeverFallsBack(t *testing.T) {
	env := setupBillTest(t)
	env.closeStore(t)

	_, err := env.svc.Pay(context.Background(), domain.PayRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSuccessfulSyncDropsStaleSnapshot(t *testing.T) {
	env := setupBillTest(t)

	env.fallback.Put(fallback.Snapshot{
		BillNo:       1,
		LocationCode: "LOC001",
		State:        domain.StateDraft,
	})

	_, err := env.svc.Sync(context.Background(), domain.SyncRequest{
		BillNo: 1, LocationCode: "LOC001", Items: cartItems(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, env.fallback.Len())
}
