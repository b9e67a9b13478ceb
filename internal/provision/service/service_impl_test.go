package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	billingdomain "github.com/baselinedocs/baselinedocs/internal/billing/domain"
	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	identitydomain "github.com/baselinedocs/baselinedocs/internal/identity/domain"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	provrepo "github.com/baselinedocs/baselinedocs/internal/provision/repository"
	"github.com/baselinedocs/baselinedocs/internal/subdomain"
	tenantdomain "github.com/baselinedocs/baselinedocs/internal/tenant/domain"
	tenantrepo "github.com/baselinedocs/baselinedocs/internal/tenant/repository"
	userdomain "github.com/baselinedocs/baselinedocs/internal/user/domain"
	userrepo "github.com/baselinedocs/baselinedocs/internal/user/repository"
	"github.com/baselinedocs/baselinedocs/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBilling struct {
	ref      string
	err      error
	requests []billingdomain.CreateCustomerRequest
}

func (f *fakeBilling) CreateCustomer(ctx context.Context, req billingdomain.CreateCustomerRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

type fakeSender struct {
	templates []string
	err       error
}

func (f *fakeSender) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return f.err
}

func (f *fakeSender) SendTemplate(ctx context.Context, to []string, templateName string, data interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.templates = append(f.templates, templateName)
	return nil
}

type harness struct {
	svc     provdomain.Service
	conn    *gorm.DB
	billing *fakeBilling
	sender  *fakeSender
	clk     *clock.FakeClock
	node    *snowflake.Node
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&tenantdomain.Tenant{},
		&tenantdomain.TrialBilling{},
		&userdomain.User{},
		&provdomain.ProvisioningFailure{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	billing := &fakeBilling{ref: "cus_123"}
	sender := &fakeSender{}
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	cfg := config.Config{
		BaseDomain:           "baselinedocs.com",
		TrialLength:          14 * 24 * time.Hour,
		SubdomainGracePeriod: 30 * 24 * time.Hour,
	}

	svc := NewService(
		conn,
		tenantrepo.NewRepository(conn),
		userrepo.NewRepository(conn),
		provrepo.NewFailureRepository(conn),
		billing,
		sender,
		nil,
		cfg,
		clk,
		node,
	)

	return &harness{svc: svc, conn: conn, billing: billing, sender: sender, clk: clk, node: node}
}

func googleIdentity() identitydomain.Identity {
	return identitydomain.Identity{
		Provider:    "google",
		ExternalID:  "google:108273645",
		Email:       "jane@example.com",
		DisplayName: "Jane Doe",
	}
}

func provisionRequest() provdomain.Request {
	return provdomain.Request{
		Identity:    googleIdentity(),
		CompanyName: "Acme Inc",
		Subdomain:   "acme",
	}
}

func (h *harness) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(model).Count(&n).Error)
	return n
}

func TestProvisionHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	result, err := h.svc.Provision(ctx, provisionRequest())
	require.NoError(t, err)
	assert.False(t, result.Partial(), "steps: %v", result.Steps)
	assert.Equal(t, "acme", result.Subdomain)
	assert.Equal(t, "https://acme.baselinedocs.com", result.WorkspaceURL)
	assert.Equal(t, h.clk.Now().Add(14*24*time.Hour), result.TrialEndsAt)

	var tenant tenantdomain.Tenant
	require.NoError(t, h.conn.First(&tenant, "subdomain = ?", "acme").Error)
	assert.Equal(t, result.TenantID, tenant.ID)
	assert.Equal(t, "Acme Inc", tenant.CompanyName)
	assert.Equal(t, "jane@example.com", tenant.BillingEmail)
	require.NotNil(t, tenant.BillingCustomerRef)
	assert.Equal(t, "cus_123", *tenant.BillingCustomerRef)

	var user userdomain.User
	require.NoError(t, h.conn.First(&user, "email = ?", "jane@example.com").Error)
	assert.True(t, user.IsAdmin)
	require.NotNil(t, user.TenantID)
	assert.Equal(t, tenant.ID, *user.TenantID)

	var billing tenantdomain.TrialBilling
	require.NoError(t, h.conn.First(&billing, "tenant_id = ?", tenant.ID).Error)
	assert.Equal(t, tenantdomain.PlanTrial, billing.Plan)
	assert.Equal(t, tenantdomain.StatusTrialing, billing.Status)
	assert.Equal(t, result.TrialEndsAt.Unix(), billing.TrialEndsAt.Unix())

	assert.Equal(t, []string{"welcome"}, h.sender.templates)
	assert.Zero(t, h.countRows(t, &provdomain.ProvisioningFailure{}))
}

func TestProvisionBillingOutageIsPartial(t *testing.T) {
	h := newHarness(t)
	h.billing.err = errors.New("stripe: connection refused")
	ctx := context.Background()

	result, err := h.svc.Provision(ctx, provisionRequest())
	require.NoError(t, err, "billing outage must not fail the signup")
	require.True(t, result.Partial())
	require.Len(t, result.Steps, 1)
	assert.Equal(t, provdomain.StepBillingCustomer, result.Steps[0].Step)

	var tenant tenantdomain.Tenant
	require.NoError(t, h.conn.First(&tenant, "subdomain = ?", "acme").Error)
	assert.Nil(t, tenant.BillingCustomerRef)

	// The trial still starts, just without a billing customer behind it.
	var billing tenantdomain.TrialBilling
	require.NoError(t, h.conn.First(&billing, "tenant_id = ?", tenant.ID).Error)
	assert.Nil(t, billing.BillingCustomerRef)

	failures, err := provrepo.NewFailureRepository(h.conn).ListByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, provdomain.StepBillingCustomer, failures[0].Step)
	assert.Contains(t, failures[0].Detail, "connection refused")
}

func TestProvisionAccountExists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	otherTenant := h.node.Generate()
	require.NoError(t, h.conn.Create(&userdomain.User{
		ID:         h.node.Generate(),
		ExternalID: "google:108273645",
		TenantID:   &otherTenant,
		Email:      "jane@example.com",
	}).Error)

	_, err := h.svc.Provision(ctx, provisionRequest())
	assert.ErrorIs(t, err, identitydomain.ErrAccountExists)
	assert.Zero(t, h.countRows(t, &tenantdomain.Tenant{}), "no tenant may be written")
	assert.Empty(t, h.billing.requests)
}

func TestProvisionLinksExistingTenantlessUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	existingID := h.node.Generate()
	require.NoError(t, h.conn.Create(&userdomain.User{
		ID:         existingID,
		ExternalID: "google:108273645",
		Email:      "jane@example.com",
		FullName:   "J. Doe",
	}).Error)

	result, err := h.svc.Provision(ctx, provisionRequest())
	require.NoError(t, err)
	assert.False(t, result.Partial())

	require.EqualValues(t, 1, h.countRows(t, &userdomain.User{}))
	var user userdomain.User
	require.NoError(t, h.conn.First(&user, "id = ?", existingID).Error)
	require.NotNil(t, user.TenantID)
	assert.Equal(t, result.TenantID, *user.TenantID)
	assert.Equal(t, "Jane Doe", user.FullName)
}

func TestProvisionSubdomainTaken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Provision(ctx, provisionRequest())
	require.NoError(t, err)

	second := provisionRequest()
	second.Identity.ExternalID = "google:999"
	second.Identity.Email = "john@example.com"
	_, err = h.svc.Provision(ctx, second)
	assert.ErrorIs(t, err, tenantdomain.ErrSubdomainTaken)
	assert.EqualValues(t, 1, h.countRows(t, &tenantdomain.Tenant{}))
}

func TestProvisionValidationRejectsBeforeAnyWrite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		req  provdomain.Request
		want error
	}{
		{"reserved subdomain", func() provdomain.Request {
			r := provisionRequest()
			r.Subdomain = "www"
			return r
		}(), subdomain.ErrReserved},
		{"too short", func() provdomain.Request {
			r := provisionRequest()
			r.Subdomain = "ab"
			return r
		}(), subdomain.ErrTooShort},
		{"empty company", func() provdomain.Request {
			r := provisionRequest()
			r.CompanyName = "   "
			return r
		}(), provdomain.ErrCompanyNameRequired},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Provision(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Zero(t, h.countRows(t, &tenantdomain.Tenant{}))
	assert.Zero(t, h.countRows(t, &userdomain.User{}))
	assert.Empty(t, h.billing.requests)
}

func TestProvisionUnverifiedIdentity(t *testing.T) {
	h := newHarness(t)

	req := provisionRequest()
	req.Identity.Email = ""
	_, err := h.svc.Provision(context.Background(), req)
	assert.ErrorIs(t, err, identitydomain.ErrAuthFailed)
	assert.Zero(t, h.countRows(t, &tenantdomain.Tenant{}))
}

// gatedTenantRepo holds every caller at the availability pre-check
// until all of them have passed it, so concurrent provisions race to
// the insert and only the unique index decides.
type gatedTenantRepo struct {
	tenantdomain.Repository
	barrier *sync.WaitGroup
}

func (g *gatedTenantRepo) SubdomainInUse(ctx context.Context, sub string, cutoff time.Time) (bool, error) {
	inUse, err := g.Repository.SubdomainInUse(ctx, sub, cutoff)
	g.barrier.Done()
	g.barrier.Wait()
	return inUse, err
}

func TestProvisionConcurrentSameSubdomain(t *testing.T) {
	h := newHarness(t)

	var barrier sync.WaitGroup
	barrier.Add(2)
	svc := NewService(
		h.conn,
		&gatedTenantRepo{Repository: tenantrepo.NewRepository(h.conn), barrier: &barrier},
		userrepo.NewRepository(h.conn),
		provrepo.NewFailureRepository(h.conn),
		h.billing,
		h.sender,
		nil,
		config.Config{
			BaseDomain:           "baselinedocs.com",
			TrialLength:          14 * 24 * time.Hour,
			SubdomainGracePeriod: 30 * 24 * time.Hour,
		},
		h.clk,
		h.node,
	)

	first := provisionRequest()
	second := provisionRequest()
	second.Identity.ExternalID = "google:999"
	second.Identity.Email = "john@example.com"

	errs := make(chan error, 2)
	for _, req := range []provdomain.Request{first, second} {
		go func(req provdomain.Request) {
			_, err := svc.Provision(context.Background(), req)
			errs <- err
		}(req)
	}

	var succeeded, taken int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			succeeded++
		case errors.Is(err, tenantdomain.ErrSubdomainTaken):
			taken++
		default:
			t.Fatalf("unexpected provisioning error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one racer may win the subdomain")
	assert.Equal(t, 1, taken, "the loser must see subdomain_taken, not a 500")
	assert.EqualValues(t, 1, h.countRows(t, &tenantdomain.Tenant{}))
	assert.EqualValues(t, 1, h.countRows(t, &userdomain.User{}))
}

func TestProvisionWelcomeEmailFailureIsPartial(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("smtp: 451 temporary failure")

	result, err := h.svc.Provision(context.Background(), provisionRequest())
	require.NoError(t, err)
	require.True(t, result.Partial())
	require.Len(t, result.Steps, 1)
	assert.Equal(t, provdomain.StepWelcomeEmail, result.Steps[0].Step)
}
