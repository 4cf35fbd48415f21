package statement

import (
	"github.com/domaehub/settle/internal/statement/repository"
	"github.com/domaehub/settle/internal/statement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("statement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
