package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindHeader(ctx context.Context, db *gorm.DB, locationCode string, billNo int64) (*Header, error)
	InsertHeader(ctx context.Context, db *gorm.DB, header *Header) error
	UpdateHeader(ctx context.Context, db *gorm.DB, header *Header) error
	ListHeldHeaders(ctx context.Context, db *gorm.DB, locationCode string) ([]Header, error)
	// ReplaceLines deletes the current line set and inserts the new one.
	ReplaceLines(ctx context.Context, db *gorm.DB, locationCode string, billNo int64, lines []Line) error
	FindLines(ctx context.Context, db *gorm.DB, locationCode string, billNo int64) ([]Line, error)
	InsertSettledDetails(ctx context.Context, db *gorm.DB, details []SettledDetail) error
	FindSettledDetails(ctx context.Context, db *gorm.DB, locationCode string, billNo int64) ([]SettledDetail, error)
	InsertHoldAudit(ctx context.Context, db *gorm.DB, audit *HoldAudit) error
}
