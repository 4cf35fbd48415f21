package sample

import (
	"github.com/domaehub/settle/internal/sample/repository"
	"github.com/domaehub/settle/internal/sample/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sample.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
