package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/tillpoint/internal/cache"
	"github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	itemInfoTTL      = 10 * time.Minute
	defaultListLimit = 100
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	items *cache.TTLCache[string, domain.ItemInfo]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		items: cache.NewTTLCache[string, domain.ItemInfo](),
	}
}

func (s *Service) List(ctx context.Context, limit int) ([]domain.Item, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}
	items, err := s.repo.List(ctx, s.db, limit)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}
	return items, nil
}

func (s *Service) Lookup(ctx context.Context, code string) (*domain.Item, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrCodeRequired
	}
	item, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}
	if item != nil {
		s.items.Set(item.ItemCode, domain.ItemInfo{Name: item.ItemName, Price: item.RetailPrice}, itemInfoTTL)
	}
	return item, nil
}

// Resolve returns display info for the given item codes, cache-first. Codes
// the Item Master does not know are simply absent from the result.
func (s *Service) Resolve(ctx context.Context, itemCodes []string) (map[string]domain.ItemInfo, error) {
	resolved := make(map[string]domain.ItemInfo, len(itemCodes))
	var missing []string
	for _, code := range itemCodes {
		if _, seen := resolved[code]; seen {
			continue
		}
		if info, ok := s.items.Get(code); ok {
			resolved[code] = info
			continue
		}
		missing = append(missing, code)
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	items, err := s.repo.FindByCodes(ctx, s.db, missing)
	if err != nil {
		// Partial cache hits are still useful to the caller.
		return resolved, err
	}
	for _, item := range items {
		info := domain.ItemInfo{Name: item.ItemName, Price: item.RetailPrice}
		resolved[item.ItemCode] = info
		s.items.Set(item.ItemCode, info, itemInfoTTL)
	}
	return resolved, nil
}
