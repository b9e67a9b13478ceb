package service

import (
	"context"
	"errors"
	"strings"

	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	"github.com/baselinedocs/baselinedocs/internal/subdomain"
	"github.com/baselinedocs/baselinedocs/internal/tenant/domain"
)

type service struct {
	repo  domain.Repository
	cfg   config.Config
	clock clock.Clock
}

func NewService(repo domain.Repository, cfg config.Config, clk clock.Clock) domain.Service {
	return &service{
		repo:  repo,
		cfg:   cfg,
		clock: clk,
	}
}

func (s *service) CheckAvailability(ctx context.Context, raw string) (*domain.Availability, error) {
	normalized, err := subdomain.Validate(raw)
	if err != nil {
		return &domain.Availability{
			Subdomain: subdomain.Normalize(raw),
			Available: false,
			Reason:    err.Error(),
		}, nil
	}

	cutoff := s.clock.Now().Add(-s.cfg.SubdomainGracePeriod)
	inUse, err := s.repo.SubdomainInUse(ctx, normalized, cutoff)
	if err != nil {
		return nil, err
	}

	availability := &domain.Availability{
		Subdomain: normalized,
		Available: !inUse,
	}
	if inUse {
		availability.Reason = domain.ErrSubdomainTaken.Error()
	}
	return availability, nil
}

func (s *service) GetBySubdomain(ctx context.Context, raw string) (*domain.Tenant, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, domain.ErrTenantNotFound
	}
	tenant, err := s.repo.FindBySubdomain(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}
