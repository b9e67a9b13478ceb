package migration

import (
	"github.com/baselinedocs/baselinedocs/internal/config"
	identitydomain "github.com/baselinedocs/baselinedocs/internal/identity/domain"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	tenantdomain "github.com/baselinedocs/baselinedocs/internal/tenant/domain"
	userdomain "github.com/baselinedocs/baselinedocs/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Non-postgres backends (local sqlite) take the schema
			// straight from the models.
			return conn.AutoMigrate(
				&tenantdomain.Tenant{},
				&tenantdomain.TrialBilling{},
				&userdomain.User{},
				&identitydomain.PendingRegistration{},
				&provdomain.ProvisioningFailure{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
