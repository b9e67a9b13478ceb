package domain

import (
	"context"
	"errors"
)

type Service interface {
	// CheckAvailability answers the as-you-type availability question.
	// The answer is advisory and may go stale before submission; only
	// the unique constraint at insert time is trusted.
	CheckAvailability(ctx context.Context, raw string) (*Availability, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
}

// Availability is the advisory answer for a candidate subdomain.
type Availability struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

var (
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrSubdomainTaken = errors.New("subdomain_taken")
)
