package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Item is one Item Master row.
type Item struct {
	LocationCode   string          `gorm:"column:location_code" json:"locationCode"`
	ItemCode       string          `gorm:"column:item_code" json:"itemCode"`
	ItemName       string          `gorm:"column:item_name" json:"itemName"`
	CategoryCode   string          `gorm:"column:category_code" json:"categoryCode"`
	RetailPrice    decimal.Decimal `gorm:"column:retail_price" json:"retailPrice"`
	ManufacturerID string          `gorm:"column:manufacturer_id" json:"manufacturerId"`
}

func (Item) TableName() string {
	return "item_master"
}

// ItemInfo is the display decoration attached to bill lines.
type ItemInfo struct {
	Name  string
	Price decimal.Decimal
}

// ItemLookup resolves item codes to display info. Consumers treat resolution
// as best-effort decoration, never as a correctness dependency.
type ItemLookup interface {
	Resolve(ctx context.Context, itemCodes []string) (map[string]ItemInfo, error)
}

type Service interface {
	ItemLookup
	// List returns up to limit Item Master rows.
	List(ctx context.Context, limit int) ([]Item, error)
	// Lookup matches a barcode (manufacturer id) or item code.
	Lookup(ctx context.Context, code string) (*Item, error)
}

var (
	ErrCodeRequired     = errors.New("code_required")
	ErrStoreUnavailable = errors.New("store_unavailable")
)
