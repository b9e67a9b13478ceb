package user

import (
	"github.com/baselinedocs/baselinedocs/internal/user/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.NewRepository),
)
