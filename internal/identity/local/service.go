// Package local implements the email/password signup flow. A signup
// creates a pending registration and emails a confirmation link; the
// tenant is provisioned only after the link is followed.
package local

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"

	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	"github.com/baselinedocs/baselinedocs/internal/identity/domain"
	"github.com/baselinedocs/baselinedocs/internal/identity/password"
	"github.com/baselinedocs/baselinedocs/internal/observability/logger"
	"github.com/baselinedocs/baselinedocs/internal/providers/email"
	userdomain "github.com/baselinedocs/baselinedocs/internal/user/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const (
	minPasswordLength = 8
	rawTokenSize      = 32
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.PendingRegistration, error)
	Resend(ctx context.Context, rawEmail string) error
	Confirm(ctx context.Context, rawToken string) (*Confirmation, error)
}

type RegisterRequest struct {
	Email       string
	Password    string
	FullName    string
	CompanyName string
	Subdomain   string
}

// Confirmation is the verified outcome of a confirmed registration,
// ready to be handed to the provisioning workflow.
type Confirmation struct {
	Identity    domain.Identity
	CompanyName string
	Subdomain   string
}

type service struct {
	regs   domain.RegistrationRepository
	users  userdomain.Repository
	sender email.Provider
	cfg    config.Config
	clock  clock.Clock
	genID  *snowflake.Node
	log    *zap.Logger
}

func NewService(
	regs domain.RegistrationRepository,
	users userdomain.Repository,
	sender email.Provider,
	cfg config.Config,
	clk clock.Clock,
	genID *snowflake.Node,
	log *zap.Logger,
) Service {
	return &service{
		regs:   regs,
		users:  users,
		sender: sender,
		cfg:    cfg,
		clock:  clk,
		genID:  genID,
		log:    log.Named("identity.local"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*domain.PendingRegistration, error) {
	if !s.cfg.PasswordSignupEnabled {
		return nil, domain.ErrProviderNotFound
	}

	address, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidRequest
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidRequest
	}

	if _, err := s.users.FindByEmail(ctx, address); err == nil {
		return nil, domain.ErrAccountExists
	} else if err != userdomain.ErrUserNotFound {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	rawToken, err := randomToken(rawTokenSize)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reg, err := s.regs.FindByEmail(ctx, address)
	switch err {
	case nil:
		if reg.Confirmed() {
			return nil, domain.ErrAccountExists
		}
		// Re-registering before confirmation replaces the pending
		// signup and rotates its token.
	case domain.ErrRegistrationNotFound:
		reg = &domain.PendingRegistration{
			ID:        s.genID.Generate(),
			Email:     address,
			CreatedAt: now,
		}
	default:
		return nil, err
	}

	reg.PasswordHash = hash
	reg.FullName = strings.TrimSpace(req.FullName)
	reg.CompanyName = strings.TrimSpace(req.CompanyName)
	reg.Subdomain = req.Subdomain
	reg.TokenHash = hashToken(rawToken)
	reg.ExpiresAt = now.Add(s.cfg.ConfirmationTTL)
	reg.UpdatedAt = now

	if err := s.regs.Save(ctx, reg); err != nil {
		return nil, err
	}

	if err := s.sendConfirmation(ctx, reg, rawToken); err != nil {
		logger.FromContext(ctx).Warn("failed to send confirmation email",
			zap.String("registration_id", reg.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return reg, nil
}

func (s *service) Resend(ctx context.Context, rawEmail string) error {
	address, err := normalizeEmail(rawEmail)
	if err != nil {
		return domain.ErrInvalidRequest
	}

	reg, err := s.regs.FindByEmail(ctx, address)
	if err != nil {
		return err
	}
	if reg.Confirmed() {
		return domain.ErrAccountExists
	}

	rawToken, err := randomToken(rawTokenSize)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	reg.TokenHash = hashToken(rawToken)
	reg.ExpiresAt = now.Add(s.cfg.ConfirmationTTL)
	reg.UpdatedAt = now
	if err := s.regs.Save(ctx, reg); err != nil {
		return err
	}

	return s.sendConfirmation(ctx, reg, rawToken)
}

func (s *service) Confirm(ctx context.Context, rawToken string) (*Confirmation, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, domain.ErrConfirmationInvalid
	}

	reg, err := s.regs.FindByTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		if err == domain.ErrRegistrationNotFound {
			return nil, domain.ErrConfirmationInvalid
		}
		return nil, err
	}
	if reg.Confirmed() {
		return nil, domain.ErrConfirmationInvalid
	}

	now := s.clock.Now()
	if now.After(reg.ExpiresAt) {
		return nil, domain.ErrConfirmationExpired
	}

	reg.ConfirmedAt = &now
	reg.UpdatedAt = now
	if err := s.regs.Save(ctx, reg); err != nil {
		return nil, err
	}

	return &Confirmation{
		Identity: domain.Identity{
			Provider:    "local",
			ExternalID:  "local:" + reg.ID.String(),
			Email:       reg.Email,
			DisplayName: reg.FullName,
		},
		CompanyName: reg.CompanyName,
		Subdomain:   reg.Subdomain,
	}, nil
}

func (s *service) sendConfirmation(ctx context.Context, reg *domain.PendingRegistration, rawToken string) error {
	confirmURL := s.cfg.APIBaseURL + "/api/signup/confirm?token=" + rawToken
	return s.sender.SendTemplate(ctx, []string{reg.Email}, "confirm_signup", map[string]interface{}{
		"full_name":    reg.FullName,
		"company_name": reg.CompanyName,
		"confirm_url":  confirmURL,
		"expires_in":   fmt.Sprintf("%d hours", int(s.cfg.ConfirmationTTL.Hours())),
	})
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
