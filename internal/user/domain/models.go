// Package domain contains core types for the user service.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a person with access to at most one tenant workspace.
// The user created during signup is always the tenant admin.
type User struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`
	// ExternalID is the identity-provider subject for this user.
	ExternalID string        `gorm:"type:text;not null;uniqueIndex:ux_users_external_id" json:"external_id"`
	TenantID   *snowflake.ID `gorm:"column:tenant_id;index" json:"tenant_id"`
	Email      string        `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	FullName   string        `gorm:"type:text;not null" json:"full_name"`
	IsAdmin    bool          `gorm:"column:is_admin;not null" json:"is_admin"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

var (
	ErrUserNotFound = errors.New("user_not_found")
	ErrUserExists   = errors.New("user_exists")
)
