package signupintent

import (
	"strings"
	"testing"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/clock"
	"github.com/baselinedocs/baselinedocs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(clk clock.Clock) *Codec {
	return NewCodec(config.Config{
		SignupIntentSecret: "test-secret",
		SignupIntentTTL:    10 * time.Minute,
	}, clk)
}

func TestIssueDecodeRoundTrip(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	codec := newTestCodec(clk)

	token, err := codec.Issue("Acme Inc", "acme")
	require.NoError(t, err)

	intent, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", intent.CompanyName)
	assert.Equal(t, "acme", intent.Subdomain)
	assert.True(t, intent.IssuedAt.Equal(clk.Now()))
}

func TestDecodeExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	codec := newTestCodec(clk)

	token, err := codec.Issue("Acme Inc", "acme")
	require.NoError(t, err)

	clk.Advance(10*time.Minute + time.Second)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrIntentExpired)
}

func TestDecodeTamperedPayload(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	codec := newTestCodec(clk)

	token, err := codec.Issue("Acme Inc", "acme")
	require.NoError(t, err)

	body, sig, ok := strings.Cut(token, ".")
	require.True(t, ok)

	// Flip a character in the payload; the signature no longer matches.
	tampered := body[:1] + flip(body[1]) + body[2:] + "." + sig
	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrIntentInvalid)
}

func TestDecodeWrongSecret(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	codec := newTestCodec(clk)
	other := NewCodec(config.Config{
		SignupIntentSecret: "another-secret",
		SignupIntentTTL:    10 * time.Minute,
	}, clk)

	token, err := codec.Issue("Acme Inc", "acme")
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.ErrorIs(t, err, ErrIntentInvalid)
}

func TestDecodeGarbage(t *testing.T) {
	codec := newTestCodec(clock.NewFakeClock(time.Now()))

	for _, token := range []string{"", "no-dot", ".", "a.b", "a.b.c"} {
		_, err := codec.Decode(token)
		assert.ErrorIs(t, err, ErrIntentInvalid, "token %q", token)
	}
}

func flip(b byte) string {
	if b == 'A' {
		return "B"
	}
	return "A"
}
