package local

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	"github.com/baselinedocs/baselinedocs/internal/identity/domain"
	identityrepo "github.com/baselinedocs/baselinedocs/internal/identity/repository"
	userdomain "github.com/baselinedocs/baselinedocs/internal/user/domain"
	"github.com/baselinedocs/baselinedocs/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	byEmail map[string]*userdomain.User
}

func (f *fakeUserRepo) WithTx(tx *gorm.DB) userdomain.Repository { return f }

func (f *fakeUserRepo) Create(ctx context.Context, user *userdomain.User) error { return nil }

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, userdomain.ErrUserNotFound
}

func (f *fakeUserRepo) FindByExternalID(ctx context.Context, externalID string) (*userdomain.User, error) {
	return nil, userdomain.ErrUserNotFound
}

func (f *fakeUserRepo) LinkTenant(ctx context.Context, id snowflake.ID, tenantID snowflake.ID, fullName string) error {
	return nil
}

type sentEmail struct {
	to       []string
	template string
	data     map[string]interface{}
}

type fakeEmailProvider struct {
	sent    []sentEmail
	sendErr error
}

func (f *fakeEmailProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return f.sendErr
}

func (f *fakeEmailProvider) SendTemplate(ctx context.Context, to []string, templateName string, data interface{}) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	payload, _ := data.(map[string]interface{})
	f.sent = append(f.sent, sentEmail{to: to, template: templateName, data: payload})
	return nil
}

func (f *fakeEmailProvider) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	confirmURL, _ := f.sent[len(f.sent)-1].data["confirm_url"].(string)
	_, token, ok := strings.Cut(confirmURL, "token=")
	require.True(t, ok, "confirm_url %q carries no token", confirmURL)
	return token
}

type fixture struct {
	svc    Service
	regs   domain.RegistrationRepository
	users  *fakeUserRepo
	sender *fakeEmailProvider
	clk    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.PendingRegistration{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	regs := identityrepo.NewRegistrationRepository(conn)
	users := &fakeUserRepo{byEmail: map[string]*userdomain.User{}}
	sender := &fakeEmailProvider{}
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	cfg := config.Config{
		SiteURL:               "https://baselinedocs.com",
		APIBaseURL:            "https://api.baselinedocs.com",
		PasswordSignupEnabled: true,
		ConfirmationTTL:       24 * time.Hour,
	}

	return &fixture{
		svc:    NewService(regs, users, sender, cfg, clk, node, zap.NewNop()),
		regs:   regs,
		users:  users,
		sender: sender,
		clk:    clk,
	}
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Email:       "jane@example.com",
		Password:    "correct horse battery",
		FullName:    "Jane Doe",
		CompanyName: "Acme Inc",
		Subdomain:   "acme",
	}
}

func TestRegisterSendsConfirmation(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", reg.Email)
	assert.False(t, reg.Confirmed())
	assert.Equal(t, f.clk.Now().Add(24*time.Hour), reg.ExpiresAt)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "confirm_signup", f.sender.sent[0].template)
	assert.Equal(t, []string{"jane@example.com"}, f.sender.sent[0].to)
	assert.NotEmpty(t, f.sender.lastToken(t))

	// The link must land on the API host, not the marketing site.
	confirmURL, _ := f.sender.sent[0].data["confirm_url"].(string)
	assert.True(t, strings.HasPrefix(confirmURL, "https://api.baselinedocs.com/api/signup/confirm?token="),
		"confirm_url %q", confirmURL)
}

func TestRegisterExistingUserEmail(t *testing.T) {
	f := newFixture(t)
	f.users.byEmail["jane@example.com"] = &userdomain.User{Email: "jane@example.com"}

	_, err := f.svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, domain.ErrAccountExists)
	assert.Empty(t, f.sender.sent)
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newFixture(t)

	req := registerRequest()
	req.Password = "short"
	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRegisterTwiceRotatesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	firstToken := f.sender.lastToken(t)

	_, err = f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	secondToken := f.sender.lastToken(t)

	assert.NotEqual(t, firstToken, secondToken)

	// The replaced token no longer confirms.
	_, err = f.svc.Confirm(ctx, firstToken)
	assert.ErrorIs(t, err, domain.ErrConfirmationInvalid)

	confirmation, err := f.svc.Confirm(ctx, secondToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", confirmation.Identity.Email)
}

func TestConfirmReturnsIdentityAndIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	confirmation, err := f.svc.Confirm(ctx, f.sender.lastToken(t))
	require.NoError(t, err)
	assert.Equal(t, "local", confirmation.Identity.Provider)
	assert.True(t, strings.HasPrefix(confirmation.Identity.ExternalID, "local:"))
	assert.Equal(t, "Jane Doe", confirmation.Identity.DisplayName)
	assert.Equal(t, "Acme Inc", confirmation.CompanyName)
	assert.Equal(t, "acme", confirmation.Subdomain)
}

func TestConfirmIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	token := f.sender.lastToken(t)

	_, err = f.svc.Confirm(ctx, token)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, token)
	assert.ErrorIs(t, err, domain.ErrConfirmationInvalid)
}

func TestConfirmExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	token := f.sender.lastToken(t)

	f.clk.Advance(24*time.Hour + time.Minute)

	_, err = f.svc.Confirm(ctx, token)
	assert.ErrorIs(t, err, domain.ErrConfirmationExpired)
}

func TestResendRotatesTokenAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	firstToken := f.sender.lastToken(t)

	f.clk.Advance(23 * time.Hour)
	require.NoError(t, f.svc.Resend(ctx, "jane@example.com"))
	secondToken := f.sender.lastToken(t)
	require.NotEqual(t, firstToken, secondToken)

	// The resent token carries a fresh TTL past the original expiry.
	f.clk.Advance(2 * time.Hour)
	confirmation, err := f.svc.Confirm(ctx, secondToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", confirmation.Identity.Email)
}

func TestResendUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Resend(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrRegistrationNotFound)
}

func TestRegisterDisabled(t *testing.T) {
	f := newFixture(t)
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.PendingRegistration{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(
		identityrepo.NewRegistrationRepository(conn),
		f.users,
		f.sender,
		config.Config{PasswordSignupEnabled: false},
		f.clk,
		node,
		zap.NewNop(),
	)

	_, err = svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}
