package inventory

import (
	"github.com/domaehub/settle/internal/inventory/repository"
	"github.com/domaehub/settle/internal/inventory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
