package main

import (
	"github.com/baselinedocs/baselinedocs/internal/billing"
	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	"github.com/baselinedocs/baselinedocs/internal/identity"
	"github.com/baselinedocs/baselinedocs/internal/migration"
	"github.com/baselinedocs/baselinedocs/internal/observability"
	"github.com/baselinedocs/baselinedocs/internal/provision"
	"github.com/baselinedocs/baselinedocs/internal/providers/email"
	"github.com/baselinedocs/baselinedocs/internal/server"
	"github.com/baselinedocs/baselinedocs/internal/signupintent"
	"github.com/baselinedocs/baselinedocs/internal/tenant"
	"github.com/baselinedocs/baselinedocs/internal/user"
	"github.com/baselinedocs/baselinedocs/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		tenant.Module,
		user.Module,
		identity.Module,
		email.Module,
		billing.Module,
		signupintent.Module,
		provision.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
