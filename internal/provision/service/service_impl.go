package service

import (
	"context"
	"strings"

	"github.com/baselinedocs/baselinedocs/internal/billing/domain"
	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	identitydomain "github.com/baselinedocs/baselinedocs/internal/identity/domain"
	"github.com/baselinedocs/baselinedocs/internal/observability/logger"
	"github.com/baselinedocs/baselinedocs/internal/observability/metrics"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	"github.com/baselinedocs/baselinedocs/internal/providers/email"
	"github.com/baselinedocs/baselinedocs/internal/subdomain"
	tenantdomain "github.com/baselinedocs/baselinedocs/internal/tenant/domain"
	userdomain "github.com/baselinedocs/baselinedocs/internal/user/domain"
	"github.com/baselinedocs/baselinedocs/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxCompanyNameLength = 120

type service struct {
	gdb      *gorm.DB
	tenants  tenantdomain.Repository
	users    userdomain.Repository
	failures provdomain.FailureRepository
	billing  domain.Provider
	sender   email.Provider
	metrics  *metrics.SignupMetrics
	cfg      config.Config
	clock    clock.Clock
	genID    *snowflake.Node
}

func NewService(
	gdb *gorm.DB,
	tenants tenantdomain.Repository,
	users userdomain.Repository,
	failures provdomain.FailureRepository,
	billing domain.Provider,
	sender email.Provider,
	m *metrics.SignupMetrics,
	cfg config.Config,
	clk clock.Clock,
	genID *snowflake.Node,
) provdomain.Service {
	return &service{
		gdb:      gdb,
		tenants:  tenants,
		users:    users,
		failures: failures,
		billing:  billing,
		sender:   sender,
		metrics:  m,
		cfg:      cfg,
		clock:    clk,
		genID:    genID,
	}
}

// Provision runs the signup workflow. Everything up to and including
// the tenant insert fails closed; once the tenant row commits, the
// remaining steps are individually best-effort and their failures are
// recorded instead of rolled back.
func (s *service) Provision(ctx context.Context, req provdomain.Request) (*provdomain.Result, error) {
	log := logger.FromContext(ctx)

	sub, err := subdomain.Validate(req.Subdomain)
	if err != nil {
		return nil, s.abort("validation_failed", err)
	}
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return nil, s.abort("validation_failed", provdomain.ErrCompanyNameRequired)
	}
	if len(company) > maxCompanyNameLength {
		return nil, s.abort("validation_failed", provdomain.ErrCompanyNameTooLong)
	}

	if req.Identity.ExternalID == "" || req.Identity.Email == "" {
		return nil, s.abort("auth_failed", identitydomain.ErrAuthFailed)
	}
	address := strings.ToLower(strings.TrimSpace(req.Identity.Email))

	if err := s.guardDuplicateIdentity(ctx, address, req.Identity.ExternalID); err != nil {
		return nil, s.abort("account_exists", err)
	}

	tenant, err := s.reserveTenant(ctx, req.Identity, company, sub, address)
	if err != nil {
		if err == tenantdomain.ErrSubdomainTaken {
			return nil, s.abort("subdomain_taken", err)
		}
		log.Error("tenant reservation failed",
			zap.String("subdomain", sub),
			zap.Error(err),
		)
		return nil, s.abort("tenant_creation_failed", provdomain.ErrTenantCreationFailed)
	}

	log.Info("tenant reserved",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("subdomain", sub),
	)

	result := &provdomain.Result{
		TenantID:     tenant.ID,
		Subdomain:    sub,
		WorkspaceURL: s.cfg.WorkspaceURL(sub),
	}

	billingRef := s.createBillingCustomer(ctx, tenant, result)
	s.linkAdminUser(ctx, tenant, req.Identity, address, result)
	s.startTrial(ctx, tenant, billingRef, result)
	s.sendWelcome(ctx, tenant, req.Identity, result)

	if result.Partial() {
		s.metrics.RecordOutcome("partial_failure")
		log.Warn("tenant provisioned with incomplete setup",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Int("failed_steps", len(result.Steps)),
		)
	} else {
		s.metrics.RecordOutcome("completed")
	}
	return result, nil
}

func (s *service) abort(outcome string, err error) error {
	s.metrics.RecordOutcome(outcome)
	return err
}

// guardDuplicateIdentity rejects identities whose email or external
// subject already belongs to a provisioned tenant. A tenant-less user
// row is fine; it gets linked in the user step.
func (s *service) guardDuplicateIdentity(ctx context.Context, address, externalID string) error {
	for _, lookup := range []func(context.Context) (*userdomain.User, error){
		func(ctx context.Context) (*userdomain.User, error) { return s.users.FindByEmail(ctx, address) },
		func(ctx context.Context) (*userdomain.User, error) { return s.users.FindByExternalID(ctx, externalID) },
	} {
		existing, err := lookup(ctx)
		switch err {
		case nil:
			if existing.TenantID != nil {
				return identitydomain.ErrAccountExists
			}
		case userdomain.ErrUserNotFound:
		default:
			return err
		}
	}
	return nil
}

// reserveTenant is the one authoritative write. The pre-check produces
// a friendlier error, but only the unique index decides races.
func (s *service) reserveTenant(ctx context.Context, identity identitydomain.Identity, company, sub, address string) (*tenantdomain.Tenant, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.cfg.SubdomainGracePeriod)
	inUse, err := s.tenants.SubdomainInUse(ctx, sub, cutoff)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, tenantdomain.ErrSubdomainTaken
	}

	tenant := tenantdomain.Tenant{
		ID:           s.genID.Generate(),
		CompanyName:  company,
		Subdomain:    sub,
		BillingEmail: address,
		Metadata: datatypes.JSONMap{
			"signup_provider": identity.Provider,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tenants.CreateTenant(ctx, tenant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tenantdomain.ErrSubdomainTaken
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *service) createBillingCustomer(ctx context.Context, tenant *tenantdomain.Tenant, result *provdomain.Result) *string {
	ref, err := s.billing.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Email: tenant.BillingEmail,
		Name:  tenant.CompanyName,
		Metadata: map[string]string{
			"tenant_id": tenant.ID.String(),
			"subdomain": tenant.Subdomain,
		},
	})
	if err != nil {
		s.recordStepFailure(ctx, tenant.ID, provdomain.StepBillingCustomer, err, result)
		return nil
	}
	if ref == "" {
		return nil
	}
	if err := s.tenants.SetBillingCustomerRef(ctx, tenant.ID, ref); err != nil {
		s.recordStepFailure(ctx, tenant.ID, provdomain.StepBillingRef, err, result)
		return nil
	}
	return &ref
}

func (s *service) linkAdminUser(ctx context.Context, tenant *tenantdomain.Tenant, identity identitydomain.Identity, address string, result *provdomain.Result) {
	now := s.clock.Now()
	err := s.gdb.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		existing, err := users.FindByEmail(ctx, address)
		switch err {
		case nil:
			return users.LinkTenant(ctx, existing.ID, tenant.ID, identity.DisplayName)
		case userdomain.ErrUserNotFound:
			return users.Create(ctx, &userdomain.User{
				ID:         s.genID.Generate(),
				ExternalID: identity.ExternalID,
				TenantID:   &tenant.ID,
				Email:      address,
				FullName:   identity.DisplayName,
				IsAdmin:    true,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		default:
			return err
		}
	})
	if err != nil {
		s.recordStepFailure(ctx, tenant.ID, provdomain.StepUserLink, err, result)
	}
}

func (s *service) startTrial(ctx context.Context, tenant *tenantdomain.Tenant, billingRef *string, result *provdomain.Result) {
	now := s.clock.Now()
	trialEndsAt := now.Add(s.cfg.TrialLength)
	err := s.tenants.CreateTrialBilling(ctx, tenantdomain.TrialBilling{
		TenantID:           tenant.ID,
		BillingCustomerRef: billingRef,
		Plan:               tenantdomain.PlanTrial,
		Status:             tenantdomain.StatusTrialing,
		TrialEndsAt:        trialEndsAt,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEndsAt,
		CreatedAt:          now,
	})
	if err != nil {
		s.recordStepFailure(ctx, tenant.ID, provdomain.StepTrialBilling, err, result)
		return
	}
	result.TrialEndsAt = trialEndsAt
}

func (s *service) sendWelcome(ctx context.Context, tenant *tenantdomain.Tenant, identity identitydomain.Identity, result *provdomain.Result) {
	err := s.sender.SendTemplate(ctx, []string{tenant.BillingEmail}, "welcome", map[string]interface{}{
		"full_name":     identity.DisplayName,
		"company_name":  tenant.CompanyName,
		"workspace_url": result.WorkspaceURL,
		"trial_ends_at": result.TrialEndsAt.Format("January 2, 2006"),
	})
	if err != nil {
		s.recordStepFailure(ctx, tenant.ID, provdomain.StepWelcomeEmail, err, result)
	}
}

// recordStepFailure logs, counts, persists, and surfaces one failed
// best-effort step. The durable record itself is best-effort too.
func (s *service) recordStepFailure(ctx context.Context, tenantID snowflake.ID, step string, cause error, result *provdomain.Result) {
	logger.FromContext(ctx).Warn("provisioning step failed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("step", step),
		zap.Error(cause),
	)
	s.metrics.RecordStepFailure(step)
	result.Steps = append(result.Steps, provdomain.StepFailure{Step: step, Detail: cause.Error()})

	failure := &provdomain.ProvisioningFailure{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		Step:      step,
		Detail:    cause.Error(),
		CreatedAt: s.clock.Now(),
	}
	if err := s.failures.Create(ctx, failure); err != nil {
		logger.FromContext(ctx).Error("failed to record provisioning failure",
			zap.String("tenant_id", tenantID.String()),
			zap.String("step", step),
			zap.Error(err),
		)
	}
}
