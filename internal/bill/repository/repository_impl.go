package repository

import (
	"context"

	"github.com/smallbiznis/tillpoint/internal/bill/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindHeader(ctx context.Context, db *gorm.DB, locationCode string, billNo int64) (*domain.Header, error) {
	var header domain.Header
	err := db.WithContext(ctx).Raw(
		`SELECT id, location_code, bill_no, state, counter_code, customer_code, held_at, updated_at
		 FROM bill_headers WHERE location_code = ? AND bill_no = ?`,
		locationCode,
		billNo,
	).Scan(&header).Error
	if err != nil {
		return nil, err
	}
	if header.ID == 0 {
		return nil, nil
	}
	return &header, nil
}

func (r *repo) InsertHeader(ctx context.Context, db *gorm.DB, header *domain.Header) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bill_headers (id, location_code, bill_no, state, counter_code, customer_code, held_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		header.ID,
		header.LocationCode,
		header.BillNo,
		header.State,
		header.CounterCode,
		header.CustomerCode,
		header.HeldAt,
		header.UpdatedAt,
	).Error
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, header *domain.Header) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bill_headers
		 SET state = ?, counter_code = ?, customer_code = ?, held_at = ?, updated_at = ?
		 WHERE location_code = ? AND bill_no = ?`,
		header.State,
		header.CounterCode,
		header.CustomerCode,
		header.HeldAt,
		header.UpdatedAt,
		header.LocationCode,
		header.BillNo,
	).Error
}

func (r *repo) ListHeldHeaders(ctx context.Context, db *gorm.DB, locationCode string) ([]domain.Header, error) {
	var headers []domain.Header
	err := db.WithContext(ctx).Raw(
		`SELECT id, location_code, bill_no, state, counter_code, customer_code, held_at, updated_at
		 FROM bill_headers
		 WHERE location_code = ? AND state = ?
		 ORDER BY held_at DESC, bill_no DESC`,
		locationCode,
		domain.StateHeld,
	).Scan(&headers).Error
	if err != nil {
		return nil, err
	}
	return headers, nil
}

func (r *repo) ReplaceLines(ctx context.Context, db *gorm.DB, locationCode string, billNo int64, lines []domain.Line) error {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM bill_lines WHERE location_code = ? AND bill_no = ?`,
		locationCode,
		billNo,
	).Error
	if err != nil {
		return err
	}
	for _, line := range lines {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO bill_lines (location_code, bill_no, slno, item_code, quantity, rate, manufacturer_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			line.LocationCode,
			line.BillNo,
			line.Slno,
			line.ItemCode,
			line.Quantity,
			line.Rate,
			line.ManufacturerID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindLines(ctx context.Context, db *gorm.DB, locationCode string, billNo int64) ([]domain.Line, error) {
	var lines []domain.Line
	err := db.WithContext(ctx).Raw(
		`SELECT location_code, bill_no, slno, item_code, quantity, rate, manufacturer_id
		 FROM bill_lines
		 WHERE location_code = ? AND bill_no = ?
		 ORDER BY slno`,
		locationCode,
		billNo,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) InsertSettledDetails(ctx context.Context, db *gorm.DB, details []domain.SettledDetail) error {
	for _, d := range details {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO settled_details (location_code, bill_no, slno, item_code, quantity, rate, settled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.LocationCode,
			d.BillNo,
			d.Slno,
			d.ItemCode,
			d.Quantity,
			d.Rate,
			d.SettledAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindSettledDetails(ctx context.Context, db *gorm.DB, locationCode string, billNo int64) ([]domain.SettledDetail, error) {
	var details []domain.SettledDetail
	err := db.WithContext(ctx).Raw(
		`SELECT location_code, bill_no, slno, item_code, quantity, rate, settled_at
		 FROM settled_details
		 WHERE location_code = ? AND bill_no = ?
		 ORDER BY slno`,
		locationCode,
		billNo,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) InsertHoldAudit(ctx context.Context, db *gorm.DB, audit *domain.HoldAudit) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO hold_audits (id, reference, location_code, bill_no, counter_code, discount, net_amount, held_on, lines)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		audit.ID,
		audit.Reference,
		audit.LocationCode,
		audit.BillNo,
		audit.CounterCode,
		audit.Discount,
		audit.NetAmount,
		audit.HeldOn,
		audit.Lines,
	).Error
}
