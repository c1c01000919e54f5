package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/tillpoint/internal/counter/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindSession(ctx context.Context, conn *gorm.DB, counterCode, date string) (*domain.Session, error) {
	var session domain.Session
	err := conn.WithContext(ctx).Raw(
		`SELECT id, counter_code, date_of_open, open_flag, opened_by, opened_at,
		        closed_by, closed_at, location_code
		 FROM counter_sessions
		 WHERE counter_code = ? AND date_of_open = ?`,
		counterCode,
		date,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) InsertSession(ctx context.Context, conn *gorm.DB, session *domain.Session) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO counter_sessions
		   (id, counter_code, date_of_open, open_flag, opened_by, opened_at, location_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.CounterCode,
		session.DateOfOpen,
		session.OpenFlag,
		session.OpenedBy,
		session.OpenedAt,
		session.LocationCode,
	).Error
}

func (r *repo) CloseSession(ctx context.Context, conn *gorm.DB, counterCode, date, closedBy string) (int64, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE counter_sessions
		 SET open_flag = ?, closed_by = ?, closed_at = ?
		 WHERE counter_code = ? AND date_of_open = ? AND open_flag = ?`,
		domain.FlagClosed,
		closedBy,
		time.Now().UTC(),
		counterCode,
		date,
		domain.FlagOpen,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) ListCounters(ctx context.Context, conn *gorm.DB) ([]domain.Counter, error) {
	var counters []domain.Counter
	err := conn.WithContext(ctx).Raw(
		`SELECT counter_code FROM counters ORDER BY counter_code`,
	).Scan(&counters).Error
	if err != nil {
		return nil, err
	}
	return counters, nil
}

func (r *repo) MaxCounterCode(ctx context.Context, conn *gorm.DB) (string, error) {
	var max string
	err := conn.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(counter_code), '') FROM counters`,
	).Scan(&max).Error
	if err != nil {
		return "", err
	}
	return max, nil
}
