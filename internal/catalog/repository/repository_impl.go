package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]domain.Item, error) {
	var items []domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT location_code, item_code, item_name, category_code, retail_price, manufacturer_id
		 FROM item_master
		 ORDER BY item_code
		 LIMIT ?`,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByCode matches the scanned value against the barcode first, then the
// item code, mirroring how the register scanner feeds either value.
func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Item, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT location_code, item_code, item_name, category_code, retail_price, manufacturer_id
		 FROM item_master
		 WHERE UPPER(manufacturer_id) = ? OR UPPER(item_code) = ?
		 LIMIT 1`,
		code,
		code,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ItemCode == "" {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByCodes(ctx context.Context, db *gorm.DB, itemCodes []string) ([]domain.Item, error) {
	if len(itemCodes) == 0 {
		return nil, nil
	}
	var items []domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT location_code, item_code, item_name, category_code, retail_price, manufacturer_id
		 FROM item_master
		 WHERE item_code IN ?`,
		itemCodes,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
