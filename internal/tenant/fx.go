package tenant

import (
	"github.com/insightboard/insightboard/internal/tenant/repository"
	"github.com/insightboard/insightboard/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
