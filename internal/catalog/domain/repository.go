package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB, limit int) ([]Item, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Item, error)
	FindByCodes(ctx context.Context, db *gorm.DB, itemCodes []string) ([]Item, error)
}
