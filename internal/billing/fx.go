package billing

import (
	"github.com/baselinedocs/baselinedocs/internal/billing/domain"
	"github.com/baselinedocs/baselinedocs/internal/billing/noop"
	"github.com/baselinedocs/baselinedocs/internal/billing/stripe"
	"github.com/baselinedocs/baselinedocs/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("billing",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) domain.Provider {
	if cfg.StripeSecretKey == "" {
		log.Warn("no billing backend configured, using noop provider")
		return noop.NewProvider()
	}
	return stripe.NewProvider(cfg.StripeSecretKey, log)
}
