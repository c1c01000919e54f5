package domain

import (
	"context"
	"errors"
)

type Service interface {
	// AllocateNext issues the next bill number and records the allocation.
	// No two concurrent calls ever return the same number.
	AllocateNext(ctx context.Context, counterCode string) (int64, error)
	// Peek returns (lastAllocated, nextAvailable) without allocating.
	Peek(ctx context.Context) (int64, int64, error)
	// MarkSettled flips the settled flag. Idempotent on settled entries.
	MarkSettled(ctx context.Context, billNo int64) error
	// Status reports whether an allocated bill number has been settled.
	Status(ctx context.Context, billNo int64) (bool, error)
}

var (
	ErrNotAllocated       = errors.New("bill_not_allocated")
	ErrAllocationConflict = errors.New("allocation_conflict")
	ErrStoreUnavailable   = errors.New("store_unavailable")
)
