package repository

import (
	"context"

	"github.com/smallbiznis/tillpoint/internal/sequence/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) MaxBillNo(ctx context.Context, db *gorm.DB) (int64, error) {
	var max int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(bill_no), 0) FROM bill_sequence`,
	).Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bill_sequence (bill_no, settled, counter_code, allocated_at)
		 VALUES (?, ?, ?, ?)`,
		entry.BillNo,
		entry.Settled,
		entry.CounterCode,
		entry.AllocatedAt,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, billNo int64) (*domain.Entry, error) {
	var entry domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT bill_no, settled, counter_code, allocated_at
		 FROM bill_sequence WHERE bill_no = ?`,
		billNo,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.BillNo == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) MarkSettled(ctx context.Context, db *gorm.DB, billNo int64) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bill_sequence SET settled = ? WHERE bill_no = ? AND settled = ?`,
		domain.FlagSettled,
		billNo,
		domain.FlagUnsettled,
	)
	return result.RowsAffected, result.Error
}
