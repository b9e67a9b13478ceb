// Package domain contains core types for the billing provisioner.
package domain

import "context"

// CreateCustomerRequest describes the billing customer created for a
// new tenant. Metadata is attached verbatim on the provider side so
// billing records can be traced back to the tenant.
type CreateCustomerRequest struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// Provider creates customer records in the external billing system.
// Provisioning treats every call as best effort.
type Provider interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (string, error)
}
