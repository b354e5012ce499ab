package apikey

import (
	"github.com/insightboard/insightboard/internal/apikey/repository"
	"github.com/insightboard/insightboard/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
