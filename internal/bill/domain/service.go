package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput is one cart row as submitted by the terminal.
type ItemInput struct {
	ItemCode       string
	Quantity       int
	Rate           decimal.Decimal
	ManufacturerID string
}

// LineView is a cart row decorated with Item Master display info.
type LineView struct {
	Slno           int             `json:"slno"`
	ItemCode       string          `json:"itemCode"`
	ItemName       string          `json:"itemName,omitempty"`
	Quantity       int             `json:"quantity"`
	Rate           decimal.Decimal `json:"rate"`
	Price          decimal.Decimal `json:"price"`
	ManufacturerID string          `json:"manufacturerId,omitempty"`
}

// HeldBill is a held cart snapshot with its decorated lines.
type HeldBill struct {
	BillNo       int64      `json:"billNo"`
	LocationCode string     `json:"locationCode"`
	CounterCode  string     `json:"counterCode,omitempty"`
	CustomerCode string     `json:"customerCode,omitempty"`
	HeldAt       *time.Time `json:"heldAt,omitempty"`
	Persisted    bool       `json:"persisted"`
	Items        []LineView `json:"items"`
}

// SettledBill is the paid line set a receipt renders from.
type SettledBill struct {
	BillNo       int64           `json:"billNo"`
	LocationCode string          `json:"locationCode"`
	SettledAt    time.Time       `json:"settledAt"`
	Total        decimal.Decimal `json:"total"`
	Items        []LineView      `json:"items"`
}

type SyncRequest struct {
	BillNo       int64
	LocationCode string
	Items        []ItemInput
}

type SyncResult struct {
	Persisted bool `json:"persisted"`
}

type HoldRequest struct {
	BillNo       int64
	LocationCode string
	CounterCode  string
	CustomerCode string
	Discount     decimal.Decimal
	Items        []ItemInput
}

type HoldResult struct {
	BillNo       int64  `json:"billNo"`
	LocationCode string `json:"locationCode"`
	Persisted    bool   `json:"persisted"`
}

type PayRequest struct {
	BillNo       int64
	LocationCode string
	Items        []ItemInput
}

type PayResult struct {
	Inserted int `json:"inserted"`
}

type Service interface {
	// Sync upserts the header to DRAFT and wholesale-replaces its lines.
	// Empty items is the valid abandon-cart signal.
	Sync(ctx context.Context, req SyncRequest) (SyncResult, error)
	// Hold transitions the header to HELD, replaces lines, and appends a
	// best-effort audit snapshot.
	Hold(ctx context.Context, req HoldRequest) (HoldResult, error)
	// Get returns the held snapshot without changing state.
	Get(ctx context.Context, billNo int64, locationCode string) (*HeldBill, error)
	// Retrieve flips HELD back to DRAFT, leaving lines untouched, and
	// returns the snapshot.
	Retrieve(ctx context.Context, billNo int64, locationCode string) (*HeldBill, error)
	// ListHeld returns held bills for a location, newest hold first.
	ListHeld(ctx context.Context, locationCode string) ([]HeldBill, error)
	// Pay appends settled details and marks the bill number settled. The
	// header is left as-is; callers allocate a fresh number for the next sale.
	Pay(ctx context.Context, req PayRequest) (PayResult, error)
	// Settled returns the settled line set for a paid bill with item
	// decoration, ErrNotFound until the bill has been paid.
	Settled(ctx context.Context, billNo int64, locationCode string) (*SettledBill, error)
}

var (
	ErrBillNoRequired   = errors.New("bill_no_required")
	ErrLocationRequired = errors.New("location_required")
	ErrItemsRequired    = errors.New("items_required")
	ErrItemCodeRequired = errors.New("item_code_required")
	ErrQuantityInvalid  = errors.New("quantity_invalid")
	ErrRateInvalid      = errors.New("rate_invalid")
	ErrTooManyLines     = errors.New("too_many_lines")
	ErrNotFound         = errors.New("bill_not_found")
	ErrAlreadySettled   = errors.New("bill_already_settled")
	ErrNotAllocated     = errors.New("bill_not_allocated")
	ErrStoreUnavailable = errors.New("store_unavailable")
)
