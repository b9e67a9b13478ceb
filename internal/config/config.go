package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	ListenAddr string

	// BaseDomain is the apex under which tenant workspaces live,
	// e.g. "baselinedocs.com" -> https://{subdomain}.baselinedocs.com.
	BaseDomain string
	// SiteURL is the public marketing/signup site, used for redirects
	// back from the identity provider.
	SiteURL string
	// APIBaseURL is this service's own public address, used for links
	// that must land on the API, like the emailed confirmation endpoint.
	// Falls back to SiteURL for single-host deployments.
	APIBaseURL string

	// TrialLength is the length of the free trial started at signup.
	TrialLength time.Duration
	// SignupIntentTTL bounds how long a signup intent survives the
	// identity-provider round trip.
	SignupIntentTTL time.Duration
	// SubdomainGracePeriod keeps a released tenant's subdomain
	// unavailable after deletion.
	SubdomainGracePeriod time.Duration
	// SignupIntentSecret signs intent tokens carried by the client.
	SignupIntentSecret string

	PasswordSignupEnabled bool
	ConfirmationTTL       time.Duration

	StripeSecretKey string

	OAuth OAuthConfig
	Email EmailConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// OAuthConfig describes the federated identity provider used for signup.
type OAuthConfig struct {
	ProviderName string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// EmailConfig configures the SMTP provider for confirmation and
// welcome emails.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "baselinedocs"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		ListenAddr: getenv("LISTEN_ADDR", ":8080"),

		BaseDomain: getenv("BASE_DOMAIN", "baselinedocs.com"),
		SiteURL:    strings.TrimRight(getenv("SITE_URL", "https://baselinedocs.com"), "/"),
		APIBaseURL: strings.TrimRight(getenv("API_BASE_URL", getenv("SITE_URL", "https://baselinedocs.com")), "/"),

		TrialLength:          time.Duration(getenvInt("TRIAL_DAYS", 14)) * 24 * time.Hour,
		SignupIntentTTL:      getenvDuration("SIGNUP_INTENT_TTL", 10*time.Minute),
		SubdomainGracePeriod: time.Duration(getenvInt("SUBDOMAIN_GRACE_DAYS", 30)) * 24 * time.Hour,
		SignupIntentSecret:   strings.TrimSpace(getenv("SIGNUP_INTENT_SECRET", "")),

		PasswordSignupEnabled: getenvBool("PASSWORD_SIGNUP_ENABLED", true),
		ConfirmationTTL:       getenvDuration("CONFIRMATION_TTL", 24*time.Hour),

		StripeSecretKey: strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),

		OAuth: OAuthConfig{
			ProviderName: getenv("OAUTH_PROVIDER", "google"),
			ClientID:     strings.TrimSpace(getenv("OAUTH_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("OAUTH_CLIENT_SECRET", "")),
			AuthURL:      getenv("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
			TokenURL:     getenv("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			UserInfoURL:  getenv("OAUTH_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
			Scopes:       parseList(getenv("OAUTH_SCOPES", "openid,email,profile")),
		},

		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@baselinedocs.com"),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "baselinedocs"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
	}

	return cfg
}

// WorkspaceURL derives the workspace address for a subdomain. Every
// collaborator constructing redirect targets goes through this.
func (c Config) WorkspaceURL(subdomain string) string {
	return "https://" + subdomain + "." + c.BaseDomain
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
