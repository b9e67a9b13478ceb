package tenant

import (
	"github.com/baselinedocs/baselinedocs/internal/tenant/repository"
	"github.com/baselinedocs/baselinedocs/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
