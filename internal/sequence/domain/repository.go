package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	MaxBillNo(ctx context.Context, db *gorm.DB) (int64, error)
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	Find(ctx context.Context, db *gorm.DB, billNo int64) (*Entry, error)
	MarkSettled(ctx context.Context, db *gorm.DB, billNo int64) (int64, error)
}
