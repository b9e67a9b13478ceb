package signupintent

import "go.uber.org/fx"

var Module = fx.Module("signupintent",
	fx.Provide(NewCodec),
)
