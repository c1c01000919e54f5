package fallback

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tillpoint/internal/config"
)

// Key identifies a mirrored cart.
type Key struct {
	LocationCode string
	BillNo       int64
}

// Line mirrors one bill line.
type Line struct {
	Slno           int
	ItemCode       string
	ItemName       string
	Quantity       int
	Rate           decimal.Decimal
	ManufacturerID string
}

// Snapshot is the process-local mirror of a draft or held cart. It exists
// only while the durable store is unreachable and never survives a restart.
type Snapshot struct {
	BillNo       int64
	LocationCode string
	CounterCode  string
	CustomerCode string
	State        string
	HeldAt       time.Time
	Lines        []Line

	storedAt time.Time
}

// Store is the bounded snapshot mirror. All access goes through the mutex;
// nothing else in the process may hold cart state.
type Store struct {
	mu     sync.Mutex
	snaps  map[Key]Snapshot
	policy *config.RegisterPolicyHolder
}

func New(policy *config.RegisterPolicyHolder) *Store {
	return &Store{
		snaps:  make(map[Key]Snapshot),
		policy: policy,
	}
}

// Put stores a snapshot, evicting the oldest entry once the configured
// capacity is reached.
func (s *Store) Put(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{LocationCode: snap.LocationCode, BillNo: snap.BillNo}
	snap.storedAt = time.Now()
	snap.Lines = cloneLines(snap.Lines)

	capacity := s.policy.Current().FallbackCapacity
	if _, exists := s.snaps[key]; !exists && len(s.snaps) >= capacity {
		s.evictOldestLocked()
	}
	s.snaps[key] = snap
}

// Get returns the snapshot for the key, if mirrored.
func (s *Store) Get(locationCode string, billNo int64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snaps[Key{LocationCode: locationCode, BillNo: billNo}]
	if !ok {
		return Snapshot{}, false
	}
	snap.Lines = cloneLines(snap.Lines)
	return snap, true
}

// Delete drops the snapshot for the key. Called once a bill is retrieved.
func (s *Store) Delete(locationCode string, billNo int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, Key{LocationCode: locationCode, BillNo: billNo})
}

// ListHeld returns held snapshots for a location, newest-first by hold time
// then bill number descending.
func (s *Store) ListHeld(locationCode string) []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Snapshot
	for key, snap := range s.snaps {
		if key.LocationCode != locationCode || snap.State != "HELD" {
			continue
		}
		snap.Lines = cloneLines(snap.Lines)
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].HeldAt.Equal(out[j].HeldAt) {
			return out[i].HeldAt.After(out[j].HeldAt)
		}
		return out[i].BillNo > out[j].BillNo
	})
	return out
}

// Len reports the number of mirrored carts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func (s *Store) evictOldestLocked() {
	var (
		oldestKey Key
		oldestAt  time.Time
		found     bool
	)
	for key, snap := range s.snaps {
		if !found || snap.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = snap.storedAt
			found = true
		}
	}
	if found {
		delete(s.snaps, oldestKey)
	}
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
