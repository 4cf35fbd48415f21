package mileage

import (
	"github.com/domaehub/settle/internal/mileage/repository"
	"github.com/domaehub/settle/internal/mileage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mileage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
