// Package domain contains persistence models for the tenant service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tenant represents one customer organization's isolated workspace,
// addressed by its unique subdomain.
type Tenant struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyName        string            `gorm:"type:text;not null" json:"company_name"`
	Subdomain          string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_subdomain" json:"subdomain"`
	BillingEmail       string            `gorm:"type:text;not null" json:"billing_email"`
	BillingCustomerRef *string           `gorm:"type:text;column:billing_customer_ref" json:"billing_customer_ref"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	// ReleasedAt marks a deleted tenant. The subdomain stays off the
	// market for a grace period so workspace URLs cannot be hijacked.
	ReleasedAt *time.Time `gorm:"column:released_at;index" json:"released_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

const (
	PlanTrial      = "trial"
	StatusTrialing = "trialing"
)

// TrialBilling is the single active billing record for a tenant.
type TrialBilling struct {
	TenantID           snowflake.ID `gorm:"primaryKey" json:"tenant_id"`
	BillingCustomerRef *string      `gorm:"type:text;column:billing_customer_ref" json:"billing_customer_ref"`
	Plan               string       `gorm:"type:text;not null" json:"plan"`
	Status             string       `gorm:"type:text;not null" json:"status"`
	TrialEndsAt        time.Time    `gorm:"not null" json:"trial_ends_at"`
	CurrentPeriodStart time.Time    `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time    `gorm:"not null" json:"current_period_end"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TrialBilling) TableName() string { return "tenant_billing" }
