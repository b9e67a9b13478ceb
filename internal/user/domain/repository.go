package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	// LinkTenant attaches a tenant to a previously tenant-less user and
	// flags them admin. Linking an already-linked user to the same
	// tenant is a no-op, which keeps retries idempotent.
	LinkTenant(ctx context.Context, id snowflake.ID, tenantID snowflake.ID, fullName string) error
}
