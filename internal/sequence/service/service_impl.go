package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/observability/metrics"
	"github.com/smallbiznis/tillpoint/internal/sequence/domain"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Policy  *config.RegisterPolicyHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	policy  *config.RegisterPolicyHolder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("sequence.service"),
		repo:    p.Repo,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

// AllocateNext reads max(bill_no), inserts max+1 unsettled, and returns it.
// The unique index on bill_no makes a concurrent double-read collide on
// insert instead of committing twice; collisions are retried on a fresh
// read of the maximum.
func (s *Service) AllocateNext(ctx context.Context, counterCode string) (int64, error) {
	counterCode = strings.TrimSpace(counterCode)
	retries := s.policy.Current().SequenceRetries

	for attempt := 0; attempt < retries; attempt++ {
		var next int64
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			max, err := s.repo.MaxBillNo(ctx, tx)
			if err != nil {
				return err
			}
			next = max + 1
			return s.repo.Insert(ctx, tx, &domain.Entry{
				BillNo:      next,
				Settled:     domain.FlagUnsettled,
				CounterCode: counterCode,
				AllocatedAt: time.Now().UTC(),
			})
		})
		if err == nil {
			s.metrics.RecordAllocation(ctx, counterCode)
			return next, nil
		}

		switch db.Classify(err) {
		case db.KindDuplicate:
			s.log.Debug("allocation collision, retrying",
				zap.Int64("bill_no", next),
				zap.Int("attempt", attempt+1),
			)
			continue
		case db.KindUnavailable, db.KindMissingObject, db.KindPermission:
			s.log.Error("allocate failed, store unreachable", zap.Error(err))
			return 0, domain.ErrStoreUnavailable
		default:
			s.log.Error("allocate failed", zap.Error(err))
			return 0, err
		}
	}

	return 0, domain.ErrAllocationConflict
}

func (s *Service) Peek(ctx context.Context) (int64, int64, error) {
	max, err := s.repo.MaxBillNo(ctx, s.db)
	if err != nil {
		if db.IsUnavailable(err) {
			return 0, 0, domain.ErrStoreUnavailable
		}
		return 0, 0, err
	}
	return max, max + 1, nil
}

func (s *Service) Status(ctx context.Context, billNo int64) (bool, error) {
	entry, err := s.repo.Find(ctx, s.db, billNo)
	if err != nil {
		if db.IsUnavailable(err) {
			return false, domain.ErrStoreUnavailable
		}
		return false, err
	}
	if entry == nil {
		return false, domain.ErrNotAllocated
	}
	return entry.Settled == domain.FlagSettled, nil
}

func (s *Service) MarkSettled(ctx context.Context, billNo int64) error {
	entry, err := s.repo.Find(ctx, s.db, billNo)
	if err != nil {
		if db.IsUnavailable(err) {
			return domain.ErrStoreUnavailable
		}
		return err
	}
	if entry == nil {
		return domain.ErrNotAllocated
	}
	if entry.Settled == domain.FlagSettled {
		return nil
	}

	if _, err := s.repo.MarkSettled(ctx, s.db, billNo); err != nil {
		if db.IsUnavailable(err) {
			return domain.ErrStoreUnavailable
		}
		return err
	}
	return nil
}
