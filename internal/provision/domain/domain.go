// Package domain contains the types and error taxonomy of the tenant
// provisioning workflow.
package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/baselinedocs/baselinedocs/internal/identity/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrCompanyNameRequired = errors.New("company_name_required")
	ErrCompanyNameTooLong  = errors.New("company_name_too_long")
	// ErrTenantCreationFailed is a store-level failure unrelated to
	// subdomain uniqueness. Nothing was persisted.
	ErrTenantCreationFailed = errors.New("tenant_creation_failed")
)

// Request is the input to a single provisioning run. Identity must
// already be verified by an identity provider.
type Request struct {
	Identity    identitydomain.Identity
	CompanyName string
	Subdomain   string
}

// Step names for the best-effort phase after the tenant row commits.
const (
	StepBillingCustomer = "billing_customer"
	StepBillingRef      = "billing_ref"
	StepUserLink        = "user_link"
	StepTrialBilling    = "trial_billing"
	StepWelcomeEmail    = "welcome_email"
)

// StepFailure records one failed best-effort step. The tenant exists;
// the step needs operator follow-up.
type StepFailure struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

// Result is the outcome of a successful provisioning run. A non-empty
// Steps slice means the run completed partially and the listed steps
// were recorded for reconciliation.
type Result struct {
	TenantID     snowflake.ID  `json:"tenant_id"`
	Subdomain    string        `json:"subdomain"`
	WorkspaceURL string        `json:"workspace_url"`
	TrialEndsAt  time.Time     `json:"trial_ends_at"`
	Steps        []StepFailure `json:"steps,omitempty"`
}

// Partial reports whether any best-effort step failed.
func (r *Result) Partial() bool { return len(r.Steps) > 0 }

type Service interface {
	Provision(ctx context.Context, req Request) (*Result, error)
}

// ProvisioningFailure is the durable record of a failed best-effort
// step, queryable by operators reconciling incomplete tenants.
type ProvisioningFailure struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"column:tenant_id;not null;index:ix_provisioning_failures_tenant_id" json:"tenant_id"`
	Step      string       `gorm:"type:text;not null" json:"step"`
	Detail    string       `gorm:"type:text;not null" json:"detail"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProvisioningFailure) TableName() string { return "provisioning_failures" }

type FailureRepository interface {
	WithTx(tx *gorm.DB) FailureRepository
	Create(ctx context.Context, failure *ProvisioningFailure) error
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]ProvisioningFailure, error)
}
