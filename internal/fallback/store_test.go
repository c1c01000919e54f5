package fallback

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(capacity int) *Store {
	return New(config.StaticRegisterPolicyHolder(config.RegisterPolicy{
		FallbackCapacity: capacity,
		MaxLinesPerBill:  200,
		SequenceRetries:  3,
	}))
}

func heldSnap(billNo int64, heldAt time.Time) Snapshot {
	return Snapshot{
		BillNo:       billNo,
		LocationCode: "LOC001",
		State:        "HELD",
		HeldAt:       heldAt,
		Lines: []Line{
			{Slno: 1, ItemCode: "SKU-1", Quantity: 2, Rate: decimal.NewFromInt(10)},
		},
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store := newTestStore(8)

	store.Put(heldSnap(101, time.Now()))

	snap, ok := store.Get("LOC001", 101)
	require.True(t, ok)
	assert.Equal(t, int64(101), snap.BillNo)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "SKU-1", snap.Lines[0].ItemCode)

	_, ok = store.Get("LOC001", 999)
	assert.False(t, ok)
	_, ok = store.Get("OTHER", 101)
	assert.False(t, ok)
}

func TestStoreGetReturnsACopy(t *testing.T) {
	store := newTestStore(8)
	store.Put(heldSnap(101, time.Now()))

	snap, ok := store.Get("LOC001", 101)
	require.True(t, ok)
	snap.Lines[0].ItemCode = "MUTATED"

	again, ok := store.Get("LOC001", 101)
	require.True(t, ok)
	assert.Equal(t, "SKU-1", again.Lines[0].ItemCode)
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	store := newTestStore(3)

	base := time.Now()
	for i := int64(1); i <= 4; i++ {
		store.Put(heldSnap(i, base.Add(time.Duration(i)*time.Second)))
	}

	assert.Equal(t, 3, store.Len())
	_, ok := store.Get("LOC001", 1)
	assert.False(t, ok, "oldest snapshot should have been evicted")
	_, ok = store.Get("LOC001", 4)
	assert.True(t, ok)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(8)
	store.Put(heldSnap(101, time.Now()))

	store.Delete("LOC001", 101)

	_, ok := store.Get("LOC001", 101)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStoreListHeldOrdersNewestFirst(t *testing.T) {
	store := newTestStore(8)

	base := time.Now()
	store.Put(heldSnap(1, base.Add(1*time.Second)))
	store.Put(heldSnap(2, base.Add(3*time.Second)))
	store.Put(heldSnap(3, base.Add(2*time.Second)))

	draft := heldSnap(4, base)
	draft.State = "DRAFT"
	store.Put(draft)

	other := heldSnap(5, base)
	other.LocationCode = "LOC002"
	store.Put(other)

	held := store.ListHeld("LOC001")
	require.Len(t, held, 3)
	assert.Equal(t, int64(2), held[0].BillNo)
	assert.Equal(t, int64(3), held[1].BillNo)
	assert.Equal(t, int64(1), held[2].BillNo)
}

func TestStoreListHeldBreaksTiesByBillNoDesc(t *testing.T) {
	store := newTestStore(8)

	at := time.Now()
	store.Put(heldSnap(7, at))
	store.Put(heldSnap(9, at))
	store.Put(heldSnap(8, at))

	held := store.ListHeld("LOC001")
	require.Len(t, held, 3)
	assert.Equal(t, int64(9), held[0].BillNo)
	assert.Equal(t, int64(8), held[1].BillNo)
	assert.Equal(t, int64(7), held[2].BillNo)
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := newTestStore(64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				billNo := int64(g*100 + i)
				snap := heldSnap(billNo, time.Now())
				snap.LocationCode = fmt.Sprintf("LOC%03d", g)
				store.Put(snap)
				store.Get(snap.LocationCode, billNo)
				store.ListHeld(snap.LocationCode)
				if i%3 == 0 {
					store.Delete(snap.LocationCode, billNo)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 64)
}
