// Package signupintent carries company name and subdomain across the
// identity-provider round trip without server-side state. The intent is
// serialized into a signed token the client hands back on the callback.
package signupintent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
)

var (
	ErrIntentInvalid = errors.New("intent_invalid")
	ErrIntentExpired = errors.New("intent_expired")
)

// Intent is the provisioning input captured before the user leaves for
// the identity provider.
type Intent struct {
	CompanyName string    `json:"company_name"`
	Subdomain   string    `json:"subdomain"`
	IssuedAt    time.Time `json:"issued_at"`
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewCodec(cfg config.Config, clk clock.Clock) *Codec {
	return &Codec{
		secret: []byte(cfg.SignupIntentSecret),
		ttl:    cfg.SignupIntentTTL,
		clock:  clk,
	}
}

// Issue signs an intent into an opaque token.
func (c *Codec) Issue(companyName, subdomain string) (string, error) {
	intent := Intent{
		CompanyName: companyName,
		Subdomain:   subdomain,
		IssuedAt:    c.clock.Now(),
	}
	payload, err := json.Marshal(intent)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + c.sign(body), nil
}

// Decode verifies the signature and TTL and returns the intent.
func (c *Codec) Decode(token string) (*Intent, error) {
	body, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || body == "" || sig == "" {
		return nil, ErrIntentInvalid
	}
	if !hmac.Equal([]byte(c.sign(body)), []byte(sig)) {
		return nil, ErrIntentInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, ErrIntentInvalid
	}
	var intent Intent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, ErrIntentInvalid
	}

	if c.clock.Now().After(intent.IssuedAt.Add(c.ttl)) {
		return nil, ErrIntentExpired
	}
	return &intent, nil
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
