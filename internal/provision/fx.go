package provision

import (
	"github.com/baselinedocs/baselinedocs/internal/provision/repository"
	"github.com/baselinedocs/baselinedocs/internal/provision/service"
	"go.uber.org/fx"
)

var Module = fx.Module("provision.service",
	fx.Provide(repository.NewFailureRepository),
	fx.Provide(service.NewService),
)
