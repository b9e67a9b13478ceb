// Package noop is the billing provider used when no billing backend is
// configured, e.g. in development and tests.
package noop

import (
	"context"

	"github.com/baselinedocs/baselinedocs/internal/billing/domain"
)

type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

func (p *Provider) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest) (string, error) {
	return "", nil
}
