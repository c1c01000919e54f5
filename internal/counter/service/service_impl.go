package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/counter/domain"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("counter.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Status(ctx context.Context, date, counterCode string) (domain.SessionStatus, error) {
	if err := validateKey(date, counterCode); err != nil {
		return domain.SessionStatus{}, err
	}

	session, err := s.repo.FindSession(ctx, s.db, counterCode, date)
	if err != nil {
		if db.IsUnavailable(err) {
			return domain.SessionStatus{}, domain.ErrStoreUnavailable
		}
		return domain.SessionStatus{}, err
	}
	if session == nil {
		return domain.SessionStatus{}, nil
	}
	return domain.SessionStatus{
		Open:   session.OpenFlag == domain.FlagOpen,
		Closed: session.OpenFlag == domain.FlagClosed,
	}, nil
}

func (s *Service) Open(ctx context.Context, req domain.OpenRequest) error {
	if err := validateKey(req.Date, req.CounterCode); err != nil {
		return err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:           s.genID.Generate(),
		CounterCode:  req.CounterCode,
		DateOfOpen:   req.Date,
		OpenFlag:     domain.FlagOpen,
		OpenedBy:     req.OpenedBy,
		OpenedAt:     &now,
		LocationCode: req.LocationCode,
	}
	// The unique (counter_code, date_of_open) index arbitrates concurrent
	// opens; no pre-read is needed.
	err := s.repo.InsertSession(ctx, s.db, session)
	switch {
	case err == nil:
		s.log.Info("counter session opened",
			zap.String("counter_code", req.CounterCode),
			zap.String("date_of_open", req.Date),
		)
		return nil
	case db.IsDuplicate(err):
		return domain.ErrAlreadyOpen
	case db.IsUnavailable(err):
		return domain.ErrStoreUnavailable
	default:
		s.log.Error("counter session open failed",
			zap.String("counter_code", req.CounterCode),
			zap.Error(err),
		)
		return err
	}
}

func (s *Service) Close(ctx context.Context, req domain.CloseRequest) (int64, error) {
	if err := validateKey(req.Date, req.CounterCode); err != nil {
		return 0, err
	}

	updated, err := s.repo.CloseSession(ctx, s.db, req.CounterCode, req.Date, req.ClosedBy)
	if err != nil {
		if db.IsUnavailable(err) {
			return 0, domain.ErrStoreUnavailable
		}
		return 0, err
	}
	if updated == 0 {
		s.log.Debug("counter session close found nothing open",
			zap.String("counter_code", req.CounterCode),
			zap.String("date_of_open", req.Date),
		)
	}
	return updated, nil
}

func (s *Service) ListCounters(ctx context.Context) ([]domain.Counter, error) {
	counters, err := s.repo.ListCounters(ctx, s.db)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}
	return counters, nil
}

func (s *Service) NextCounterCode(ctx context.Context) (string, error) {
	max, err := s.repo.MaxCounterCode(ctx, s.db)
	if err != nil {
		if db.IsUnavailable(err) {
			return "", domain.ErrStoreUnavailable
		}
		return "", err
	}
	return nextCode(max), nil
}

// nextCode increments the numeric tail of a counter code, keeping any prefix
// and zero padding ("C09" becomes "C10", "" becomes "1").
func nextCode(max string) string {
	if max == "" {
		return "1"
	}
	i := len(max)
	for i > 0 && max[i-1] >= '0' && max[i-1] <= '9' {
		i--
	}
	prefix, digits := max[:i], max[i:]
	if digits == "" {
		return max + "1"
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return max + "1"
	}
	return prefix + fmt.Sprintf("%0*d", len(digits), n+1)
}

func validateKey(date, counterCode string) error {
	if strings.TrimSpace(counterCode) == "" {
		return domain.ErrCounterRequired
	}
	if strings.TrimSpace(date) == "" {
		return domain.ErrDateRequired
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.ErrDateInvalid
	}
	return nil
}
