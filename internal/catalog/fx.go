package catalog

import (
	"github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"github.com/smallbiznis/tillpoint/internal/catalog/repository"
	"github.com/smallbiznis/tillpoint/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) domain.ItemLookup { return svc }),
)
