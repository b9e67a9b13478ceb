package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTenant(ctx context.Context, tenant Tenant) error
	FindByID(ctx context.Context, id snowflake.ID) (*Tenant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	// SubdomainInUse counts live tenants plus tenants released after the
	// grace cutoff. Advisory only; the unique index is authoritative.
	SubdomainInUse(ctx context.Context, subdomain string, graceCutoff time.Time) (bool, error)
	SetBillingCustomerRef(ctx context.Context, id snowflake.ID, ref string) error
	CreateTrialBilling(ctx context.Context, billing TrialBilling) error
	Release(ctx context.Context, id snowflake.ID, releasedAt time.Time) error
}
