package domain

import (
	"context"
	"errors"
)

var (
	ErrDateRequired     = errors.New("date_required")
	ErrDateInvalid      = errors.New("date_invalid")
	ErrCounterRequired  = errors.New("counter_code_required")
	ErrAlreadyOpen      = errors.New("session_already_open")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// SessionStatus reports both flags so a terminal can tell a never-opened day
// (neither) from a finished one (closed).
type SessionStatus struct {
	Open   bool `json:"open"`
	Closed bool `json:"closed"`
}

type OpenRequest struct {
	Date         string
	CounterCode  string
	LocationCode string
	OpenedBy     string
}

type CloseRequest struct {
	Date        string
	CounterCode string
	ClosedBy    string
}

type Service interface {
	Status(ctx context.Context, date, counterCode string) (SessionStatus, error)
	Open(ctx context.Context, req OpenRequest) error
	Close(ctx context.Context, req CloseRequest) (int64, error)
	ListCounters(ctx context.Context) ([]Counter, error)
	NextCounterCode(ctx context.Context) (string, error)
}
