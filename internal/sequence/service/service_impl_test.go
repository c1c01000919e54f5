package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/migration"
	"github.com/smallbiznis/tillpoint/internal/sequence/domain"
	"github.com/smallbiznis/tillpoint/internal/sequence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSequenceTest(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Bootstrap(conn))

	svc := New(Params{
		DB:   conn,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Policy: config.StaticRegisterPolicyHolder(config.RegisterPolicy{
			FallbackCapacity: 16,
			MaxLinesPerBill:  200,
			SequenceRetries:  3,
		}),
	})
	return conn, svc
}

func TestAllocateNextStartsAtOne(t *testing.T) {
	_, svc := setupSequenceTest(t)

	billNo, err := svc.AllocateNext(context.Background(), "C01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), billNo)
}

func TestAllocateNextIsMonotonic(t *testing.T) {
	_, svc := setupSequenceTest(t)

	for want := int64(1); want <= 5; want++ {
		billNo, err := svc.AllocateNext(context.Background(), "C01")
		require.NoError(t, err)
		assert.Equal(t, want, billNo)
	}
}

func TestAllocateNextConcurrentCallsAreDistinct(t *testing.T) {
	_, svc := setupSequenceTest(t)

	const (
		workers      = 8
		perWorker    = 5
		totalNumbers = workers * perWorker
	)

	results := make(chan int64, totalNumbers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				billNo, err := svc.AllocateNext(context.Background(), "C01")
				assert.NoError(t, err)
				results <- billNo
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, totalNumbers)
	for billNo := range results {
		assert.False(t, seen[billNo], "bill number %d issued twice", billNo)
		seen[billNo] = true
	}
	assert.Len(t, seen, totalNumbers)
}

func TestAllocateNextRecordsUnsettledEntry(t *testing.T) {
	conn, svc := setupSequenceTest(t)

	billNo, err := svc.AllocateNext(context.Background(), "C02")
	require.NoError(t, err)

	var entry domain.Entry
	require.NoError(t, conn.Raw(
		`SELECT bill_no, settled, counter_code FROM bill_sequence WHERE bill_no = ?`, billNo,
	).Scan(&entry).Error)
	assert.Equal(t, domain.FlagUnsettled, entry.Settled)
	assert.Equal(t, "C02", entry.CounterCode)
}

func TestPeekDoesNotAllocate(t *testing.T) {
	_, svc := setupSequenceTest(t)

	last, next, err := svc.Peek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)
	assert.Equal(t, int64(1), next)

	_, err = svc.AllocateNext(context.Background(), "")
	require.NoError(t, err)
	_, err = svc.AllocateNext(context.Background(), "")
	require.NoError(t, err)

	last, next, err = svc.Peek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
	assert.Equal(t, int64(3), next)

	// Peeking twice changes nothing.
	last, next, err = svc.Peek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
	assert.Equal(t, int64(3), next)
}

func TestMarkSettledFlipsFlag(t *testing.T) {
	_, svc := setupSequenceTest(t)

	billNo, err := svc.AllocateNext(context.Background(), "C01")
	require.NoError(t, err)

	settled, err := svc.Status(context.Background(), billNo)
	require.NoError(t, err)
	assert.False(t, settled)

	require.NoError(t, svc.MarkSettled(context.Background(), billNo))

	settled, err = svc.Status(context.Background(), billNo)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestMarkSettledIsIdempotent(t *testing.T) {
	_, svc := setupSequenceTest(t)

	billNo, err := svc.AllocateNext(context.Background(), "C01")
	require.NoError(t, err)

	require.NoError(t, svc.MarkSettled(context.Background(), billNo))
	require.NoError(t, svc.MarkSettled(context.Background(), billNo))

	settled, err := svc.Status(context.Background(), billNo)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestMarkSettledUnallocated(t *testing.T) {
	_, svc := setupSequenceTest(t)

	err := svc.MarkSettled(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotAllocated)
}

func TestStatusUnallocated(t *testing.T) {
	_, svc := setupSequenceTest(t)

	_, err := svc.Status(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotAllocated)
}

func TestAllocateNextStoreDown(t *testing.T) {
	conn, svc := setupSequenceTest(t)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.AllocateNext(context.Background(), "C01")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
