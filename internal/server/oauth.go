package server

import (
	"crypto/hmac"
	"fmt"
	"net/http"
	"strings"
	"time"

	identitydomain "github.com/baselinedocs/baselinedocs/internal/identity/domain"
	identityoauth "github.com/baselinedocs/baselinedocs/internal/identity/oauth"
	"github.com/baselinedocs/baselinedocs/internal/observability/logger"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	"github.com/baselinedocs/baselinedocs/internal/subdomain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_code_verifier"
	signupIntentCookie  = "signup_intent"
	oauthStateTTL       = 10 * time.Minute
)

// OAuthRedirect kicks off federated signup. The company name and
// subdomain captured on the form are sealed into a signed intent that
// rides the round trip in a cookie, so an abandoned redirect leaves no
// server-side state behind.
func (s *Server) OAuthRedirect(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	if provider == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	sub, err := subdomain.Validate(c.Query("subdomain"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	company := strings.TrimSpace(c.Query("company_name"))
	if company == "" {
		AbortWithError(c, provdomain.ErrCompanyNameRequired)
		return
	}

	intentToken, err := s.intents.Issue(company, sub)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.oauthSvc.RedirectURL(c.Request.Context(), provider, identityoauth.RedirectRequest{
		RedirectURI: s.oauthRedirectURI(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.setOAuthCookie(c, oauthStateCookie, result.State, oauthStateTTL)
	if strings.TrimSpace(result.CodeVerifier) != "" {
		s.setOAuthCookie(c, oauthVerifierCookie, result.CodeVerifier, oauthStateTTL)
	}
	s.setOAuthCookie(c, signupIntentCookie, intentToken, oauthStateTTL)

	c.Redirect(http.StatusFound, result.URL)
}

// OAuthCallback is the provider's return leg: verify state, exchange
// the code, unseal the intent, and provision.
func (s *Server) OAuthCallback(c *gin.Context) {
	if errCode := strings.TrimSpace(c.Query("error")); errCode != "" {
		logger.FromContext(c.Request.Context()).Warn("oauth callback returned error",
			zap.String("error", errCode),
			zap.String("description", strings.TrimSpace(c.Query("error_description"))),
		)
		s.clearOAuthCookies(c)
		s.redirectSignupError(c, identitydomain.ErrAuthFailed)
		return
	}

	code := strings.TrimSpace(c.Query("code"))
	state := strings.TrimSpace(c.Query("state"))
	storedState, err := c.Cookie(oauthStateCookie)
	if err != nil || storedState == "" || state == "" || !hmac.Equal([]byte(state), []byte(storedState)) {
		s.clearOAuthCookies(c)
		s.redirectSignupError(c, identitydomain.ErrAuthFailed)
		return
	}

	verifier, _ := c.Cookie(oauthVerifierCookie)
	intentToken, _ := c.Cookie(signupIntentCookie)
	s.clearOAuthCookies(c)

	intent, err := s.intents.Decode(intentToken)
	if err != nil {
		s.redirectSignupError(c, err)
		return
	}

	identity, err := s.oauthSvc.Exchange(c.Request.Context(), s.cfg.OAuth.ProviderName, identityoauth.ExchangeRequest{
		Code:         code,
		RedirectURI:  s.oauthRedirectURI(c),
		CodeVerifier: verifier,
	})
	if err != nil {
		s.redirectSignupError(c, err)
		return
	}

	result, err := s.provisionSvc.Provision(c.Request.Context(), provdomain.Request{
		Identity:    *identity,
		CompanyName: intent.CompanyName,
		Subdomain:   intent.Subdomain,
	})
	if err != nil {
		s.redirectSignupError(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.WorkspaceURL)
}

type CompleteSignupRequest struct {
	Intent       string `json:"intent"`
	Provider     string `json:"provider"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
}

// CompleteSignup is the JSON twin of OAuthCallback for clients that
// handle the provider redirect themselves and hold the intent token in
// browser storage instead of a cookie.
func (s *Server) CompleteSignup(c *gin.Context) {
	var req CompleteSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	intent, err := s.intents.Decode(req.Intent)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	identity, err := s.oauthSvc.Exchange(c.Request.Context(), req.Provider, identityoauth.ExchangeRequest{
		Code:         req.Code,
		RedirectURI:  req.RedirectURI,
		CodeVerifier: req.CodeVerifier,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.provisionSvc.Provision(c.Request.Context(), provdomain.Request{
		Identity:    *identity,
		CompanyName: intent.CompanyName,
		Subdomain:   intent.Subdomain,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) oauthRedirectURI(c *gin.Context) string {
	return fmt.Sprintf("%s/api/auth/callback", requestBaseURL(c))
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(proto)
	}
	host := c.Request.Host
	if forwarded := firstHeaderValue(c.GetHeader("X-Forwarded-Host")); forwarded != "" {
		host = forwarded
	}
	return scheme + "://" + host
}

func firstHeaderValue(value string) string {
	if value == "" {
		return ""
	}
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

func (s *Server) setOAuthCookie(c *gin.Context, name string, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", s.cfg.IsProduction(), true)
}

func (s *Server) clearOAuthCookies(c *gin.Context) {
	for _, name := range []string{oauthStateCookie, oauthVerifierCookie, signupIntentCookie} {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, "", -1, "/", "", s.cfg.IsProduction(), true)
	}
}
