package catalog

import (
	"github.com/domaehub/settle/internal/catalog/repository"
	"github.com/domaehub/settle/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
