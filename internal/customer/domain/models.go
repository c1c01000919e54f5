package domain

import (
	"context"
	"errors"
)

var ErrStoreUnavailable = errors.New("store_unavailable")

type Customer struct {
	LocationCode     string `gorm:"column:location_code" json:"locationCode"`
	CustomerCode     string `gorm:"column:customer_code" json:"customerCode"`
	CustomerName     string `gorm:"column:customer_name" json:"customerName"`
	CustomerCategory string `gorm:"column:customer_category" json:"customerCategory"`
	CategoryName     string `gorm:"column:category_name" json:"categoryName"`
}

func (Customer) TableName() string {
	return "customers"
}

type Service interface {
	List(ctx context.Context, locationCode string) ([]Customer, error)
}
