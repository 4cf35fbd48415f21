package audit

import (
	"github.com/domaehub/settle/internal/audit/repository"
	"github.com/domaehub/settle/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
