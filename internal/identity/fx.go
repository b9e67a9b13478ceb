package identity

import (
	"github.com/baselinedocs/baselinedocs/internal/identity/local"
	"github.com/baselinedocs/baselinedocs/internal/identity/oauth"
	"github.com/baselinedocs/baselinedocs/internal/identity/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.NewRegistrationRepository),
	fx.Provide(oauth.NewService),
	fx.Provide(local.NewService),
)
