package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindSession(ctx context.Context, conn *gorm.DB, counterCode, date string) (*Session, error)
	InsertSession(ctx context.Context, conn *gorm.DB, session *Session) error
	CloseSession(ctx context.Context, conn *gorm.DB, counterCode, date, closedBy string) (int64, error)
	ListCounters(ctx context.Context, conn *gorm.DB) ([]Counter, error)
	MaxCounterCode(ctx context.Context, conn *gorm.DB) (string, error)
}
