package service

import (
	"context"

	"github.com/smallbiznis/tillpoint/internal/customer/domain"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{db: p.DB, log: p.Log.Named("customer.service"), repo: p.Repo}
}

func (s *Service) List(ctx context.Context, locationCode string) ([]domain.Customer, error) {
	customers, err := s.repo.List(ctx, s.db, locationCode)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}
	return customers, nil
}
