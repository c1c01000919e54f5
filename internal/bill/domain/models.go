package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StateDraft = "DRAFT"
	StateHeld  = "HELD"
)

// Header is the single mutable row per (location, billNo). State transitions
// flip State in place; a header is never duplicated for a new state.
type Header struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	LocationCode string       `gorm:"column:location_code" json:"locationCode"`
	BillNo       int64        `gorm:"column:bill_no" json:"billNo"`
	State        string       `gorm:"column:state" json:"state"`
	CounterCode  string       `gorm:"column:counter_code" json:"counterCode,omitempty"`
	CustomerCode string       `gorm:"column:customer_code" json:"customerCode,omitempty"`
	HeldAt       *time.Time   `gorm:"column:held_at" json:"heldAt,omitempty"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updatedAt"`
}

func (Header) TableName() string {
	return "bill_headers"
}

// Line is one cart row. Slno values are a dense 1..N sequence; the whole set
// is replaced on every sync or hold, never patched.
type Line struct {
	LocationCode   string          `gorm:"column:location_code" json:"locationCode"`
	BillNo         int64           `gorm:"column:bill_no" json:"billNo"`
	Slno           int             `gorm:"column:slno" json:"slno"`
	ItemCode       string          `gorm:"column:item_code" json:"itemCode"`
	Quantity       int             `gorm:"column:quantity" json:"quantity"`
	Rate           decimal.Decimal `gorm:"column:rate" json:"rate"`
	ManufacturerID string          `gorm:"column:manufacturer_id" json:"manufacturerId,omitempty"`
}

func (Line) TableName() string {
	return "bill_lines"
}

// SettledDetail is the append-only record of a finalized line item. It is an
// independent audit trail, never linked back to bill_lines.
type SettledDetail struct {
	LocationCode string          `gorm:"column:location_code" json:"locationCode"`
	BillNo       int64           `gorm:"column:bill_no" json:"billNo"`
	Slno         int             `gorm:"column:slno" json:"slno"`
	ItemCode     string          `gorm:"column:item_code" json:"itemCode"`
	Quantity     int             `gorm:"column:quantity" json:"quantity"`
	Rate         decimal.Decimal `gorm:"column:rate" json:"rate"`
	SettledAt    time.Time       `gorm:"column:settled_at" json:"settledAt"`
}

func (SettledDetail) TableName() string {
	return "settled_details"
}

// HoldAudit is the append-only snapshot captured when a bill goes on hold.
type HoldAudit struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Reference    string          `gorm:"column:reference" json:"reference"`
	LocationCode string          `gorm:"column:location_code" json:"locationCode"`
	BillNo       int64           `gorm:"column:bill_no" json:"billNo"`
	CounterCode  string          `gorm:"column:counter_code" json:"counterCode,omitempty"`
	Discount     decimal.Decimal `gorm:"column:discount" json:"discount"`
	NetAmount    decimal.Decimal `gorm:"column:net_amount" json:"netAmount"`
	HeldOn       time.Time       `gorm:"column:held_on" json:"heldOn"`
	Lines        datatypes.JSON  `gorm:"column:lines" json:"lines"`
}

func (HoldAudit) TableName() string {
	return "hold_audits"
}
