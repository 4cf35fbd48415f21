package order

import (
	"github.com/domaehub/settle/internal/order/repository"
	"github.com/domaehub/settle/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
