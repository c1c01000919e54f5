package repository

import (
	"context"

	"github.com/smallbiznis/tillpoint/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, locationCode string) ([]domain.Customer, error) {
	var customers []domain.Customer
	query := conn.WithContext(ctx).Raw(
		`SELECT c.location_code, c.customer_code, c.customer_name,
		        c.customer_category, COALESCE(cc.category_name, '') AS category_name
		 FROM customers c
		 LEFT JOIN customer_categories cc ON cc.category_code = c.customer_category
		 WHERE (? = '' OR c.location_code = ?)
		 ORDER BY c.customer_code`,
		locationCode,
		locationCode,
	)
	if err := query.Scan(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
