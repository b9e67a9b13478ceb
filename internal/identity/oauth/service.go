package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/baselinedocs/baselinedocs/internal/config"
	"github.com/baselinedocs/baselinedocs/internal/identity/domain"
	obstracing "github.com/baselinedocs/baselinedocs/internal/observability/tracing"
)

const (
	defaultTokenSize = 32
)

// Service handles the authorization-code round trip against the
// configured federated identity provider.
type Service interface {
	RedirectURL(ctx context.Context, providerName string, req RedirectRequest) (*RedirectResult, error)
	Exchange(ctx context.Context, providerName string, req ExchangeRequest) (*domain.Identity, error)
}

type RedirectRequest struct {
	RedirectURI string
}

type RedirectResult struct {
	URL          string
	State        string
	CodeVerifier string
}

type ExchangeRequest struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
}

type service struct {
	cfg        config.OAuthConfig
	httpClient *http.Client
}

func NewService(cfg config.Config) Service {
	return &service{
		cfg:        cfg.OAuth,
		httpClient: obstracing.WrapHTTPClient(http.DefaultClient),
	}
}

func (s *service) RedirectURL(ctx context.Context, providerName string, req RedirectRequest) (*RedirectResult, error) {
	_ = ctx

	if err := s.checkProvider(providerName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.cfg.ClientID) == "" || strings.TrimSpace(s.cfg.AuthURL) == "" {
		return nil, domain.ErrProviderNotFound
	}
	if strings.TrimSpace(req.RedirectURI) == "" {
		return nil, domain.ErrInvalidRequest
	}

	state, err := randomToken(defaultTokenSize)
	if err != nil {
		return nil, err
	}
	verifier, err := randomToken(defaultTokenSize)
	if err != nil {
		return nil, err
	}

	authURL, err := buildAuthURL(s.cfg, req.RedirectURI, state, pkceChallenge(verifier))
	if err != nil {
		return nil, err
	}

	return &RedirectResult{
		URL:          authURL,
		State:        state,
		CodeVerifier: verifier,
	}, nil
}

func (s *service) Exchange(ctx context.Context, providerName string, req ExchangeRequest) (*domain.Identity, error) {
	if err := s.checkProvider(providerName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if strings.TrimSpace(s.cfg.TokenURL) == "" || strings.TrimSpace(s.cfg.UserInfoURL) == "" {
		return nil, domain.ErrProviderNotFound
	}

	token, err := s.exchangeCode(ctx, req.Code, req.RedirectURI, req.CodeVerifier)
	if err != nil {
		return nil, err
	}

	identity, err := s.fetchIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	identity.Provider = s.cfg.ProviderName

	return &identity, nil
}

func (s *service) checkProvider(rawName string) error {
	name := strings.ToLower(strings.TrimSpace(rawName))
	if name == "" || name != strings.ToLower(s.cfg.ProviderName) {
		return domain.ErrProviderNotFound
	}
	return nil
}

func buildAuthURL(cfg config.OAuthConfig, redirectURI, state, challenge string) (string, error) {
	parsed, err := url.Parse(cfg.AuthURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("response_type", "code")
	query.Set("client_id", cfg.ClientID)
	query.Set("redirect_uri", redirectURI)
	if len(cfg.Scopes) > 0 {
		query.Set("scope", strings.Join(cfg.Scopes, " "))
	}
	query.Set("state", state)
	if challenge != "" {
		query.Set("code_challenge", challenge)
		query.Set("code_challenge_method", "S256")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
}

func (s *service) exchangeCode(ctx context.Context, code, redirectURI, verifier string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", s.cfg.ClientID)
	if strings.TrimSpace(s.cfg.ClientSecret) != "" {
		form.Set("client_secret", s.cfg.ClientSecret)
	}
	if strings.TrimSpace(verifier) != "" {
		form.Set("code_verifier", verifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Cannot tell whether the code was good; the provider never answered.
		return nil, domain.ErrAuthUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrAuthUnavailable
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, domain.ErrAuthUnavailable
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.ErrAuthFailed
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err == nil && token.AccessToken != "" {
		return &token, nil
	}

	// Some providers still answer token requests with form encoding.
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, domain.ErrAuthFailed
	}
	token.AccessToken = values.Get("access_token")
	token.TokenType = values.Get("token_type")
	token.IDToken = values.Get("id_token")
	if token.AccessToken == "" {
		return nil, domain.ErrAuthFailed
	}
	return &token, nil
}

func (s *service) fetchIdentity(ctx context.Context, token *tokenResponse) (domain.Identity, error) {
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return domain.Identity{}, domain.ErrAuthFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UserInfoURL, nil)
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, domain.ErrAuthUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Identity{}, domain.ErrAuthUnavailable
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return domain.Identity{}, domain.ErrAuthUnavailable
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Identity{}, domain.ErrAuthFailed
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Identity{}, domain.ErrAuthFailed
	}

	identity := domain.Identity{
		ExternalID:  firstClaim(payload, "sub", "id", "user_id", "uid"),
		Email:       firstClaim(payload, "email"),
		DisplayName: firstClaim(payload, "name", "display_name", "login", "username", "preferred_username"),
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Email
	}
	if identity.ExternalID == "" || identity.Email == "" {
		return domain.Identity{}, domain.ErrAuthFailed
	}

	return identity, nil
}

func firstClaim(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key]; ok {
			if str := claimToString(value); str != "" {
				return str
			}
		}
	}
	return ""
}

func claimToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func randomToken(size int) (string, error) {
	if size <= 0 {
		size = defaultTokenSize
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
