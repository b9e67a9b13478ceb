package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PendingRegistration is an email/password signup waiting for the
// confirmation link to be clicked. The tenant is only provisioned once
// the registration is confirmed.
type PendingRegistration struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_pending_registrations_email" json:"email"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	FullName     string       `gorm:"type:text;not null" json:"full_name"`
	CompanyName  string       `gorm:"type:text;not null" json:"company_name"`
	Subdomain    string       `gorm:"type:text;not null" json:"subdomain"`
	// TokenHash is the SHA-256 of the confirmation token. The raw token
	// only ever travels inside the confirmation email.
	TokenHash   string     `gorm:"type:text;not null;index:ix_pending_registrations_token_hash" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PendingRegistration) TableName() string { return "pending_registrations" }

// Confirmed reports whether the registration was already used.
func (r PendingRegistration) Confirmed() bool { return r.ConfirmedAt != nil }
