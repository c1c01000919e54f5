package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, conn *gorm.DB, locationCode string) ([]Customer, error)
}
