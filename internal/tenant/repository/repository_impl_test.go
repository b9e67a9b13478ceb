package repository

import (
	"context"
	"testing"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/tenant/domain"
	"github.com/baselinedocs/baselinedocs/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Tenant{}, &domain.TrialBilling{}))
	return conn
}

func newTenant(node *snowflake.Node, sub string) domain.Tenant {
	now := time.Now().UTC()
	return domain.Tenant{
		ID:           node.Generate(),
		CompanyName:  "Acme Inc",
		Subdomain:    sub,
		BillingEmail: "owner@" + sub + ".test",
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateTenantDuplicateSubdomain(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.CreateTenant(ctx, newTenant(node, "acme")))

	err = repo.CreateTenant(ctx, newTenant(node, "acme"))
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err), "expected a duplicate key error, got %v", err)
}

func TestSubdomainInUseGracePeriod(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now().UTC()
	cutoff := now.Add(-30 * 24 * time.Hour)

	live := newTenant(node, "live")
	require.NoError(t, repo.CreateTenant(ctx, live))

	recentlyReleased := newTenant(node, "recent")
	require.NoError(t, repo.CreateTenant(ctx, recentlyReleased))
	require.NoError(t, repo.Release(ctx, recentlyReleased.ID, now.Add(-24*time.Hour)))

	longReleased := newTenant(node, "stale")
	require.NoError(t, repo.CreateTenant(ctx, longReleased))
	require.NoError(t, repo.Release(ctx, longReleased.ID, now.Add(-90*24*time.Hour)))

	for _, tc := range []struct {
		sub   string
		inUse bool
	}{
		{"live", true},
		{"recent", true},
		{"stale", false},
		{"never-used", false},
	} {
		inUse, err := repo.SubdomainInUse(ctx, tc.sub, cutoff)
		require.NoError(t, err)
		assert.Equal(t, tc.inUse, inUse, "subdomain %q", tc.sub)
	}
}

func TestFindBySubdomainSkipsReleased(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()

	tenant := newTenant(node, "acme")
	require.NoError(t, repo.CreateTenant(ctx, tenant))

	found, err := repo.FindBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	require.NoError(t, repo.Release(ctx, tenant.ID, time.Now().UTC()))

	_, err = repo.FindBySubdomain(ctx, "acme")
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestSetBillingCustomerRef(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()

	tenant := newTenant(node, "acme")
	require.NoError(t, repo.CreateTenant(ctx, tenant))
	require.NoError(t, repo.SetBillingCustomerRef(ctx, tenant.ID, "cus_123"))

	found, err := repo.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, found.BillingCustomerRef)
	assert.Equal(t, "cus_123", *found.BillingCustomerRef)
}

func TestCreateTrialBilling(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ctx := context.Background()

	tenant := newTenant(node, "acme")
	require.NoError(t, repo.CreateTenant(ctx, tenant))

	now := time.Now().UTC()
	require.NoError(t, repo.CreateTrialBilling(ctx, domain.TrialBilling{
		TenantID:           tenant.ID,
		Plan:               domain.PlanTrial,
		Status:             domain.StatusTrialing,
		TrialEndsAt:        now.Add(14 * 24 * time.Hour),
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(14 * 24 * time.Hour),
		CreatedAt:          now,
	}))

	var billing domain.TrialBilling
	require.NoError(t, conn.First(&billing, "tenant_id = ?", tenant.ID).Error)
	assert.Equal(t, domain.PlanTrial, billing.Plan)
	assert.Equal(t, domain.StatusTrialing, billing.Status)
	assert.Nil(t, billing.BillingCustomerRef)
}
