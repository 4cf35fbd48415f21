package company

import (
	"github.com/domaehub/settle/internal/company/repository"
	"github.com/domaehub/settle/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
