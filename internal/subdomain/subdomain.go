// Package subdomain validates the human-chosen identifier that addresses
// a tenant workspace.
package subdomain

import (
	"errors"
	"strings"

	"github.com/gosimple/slug"
)

const (
	// MinLength and MaxLength bound the normalized subdomain.
	MinLength = 3
	MaxLength = 32
)

// Rejection reasons are distinguishable so callers can render a precise
// message.
var (
	ErrTooShort      = errors.New("subdomain_too_short")
	ErrTooLong       = errors.New("subdomain_too_long")
	ErrInvalidFormat = errors.New("subdomain_invalid_format")
	ErrReserved      = errors.New("subdomain_reserved")
)

// reserved names collide with platform hosts and can never be claimed by
// a tenant.
var reserved = map[string]struct{}{
	"www": {}, "app": {}, "api": {}, "admin": {}, "dashboard": {},
	"staging": {}, "dev": {}, "test": {}, "demo": {}, "docs": {},
	"blog": {}, "status": {}, "support": {}, "help": {},
	"mail": {}, "email": {}, "smtp": {}, "ftp": {}, "ssh": {},
	"cdn": {}, "static": {}, "assets": {}, "files": {},
}

// Normalize lowercases the input, maps everything outside [a-z0-9-] to
// hyphens, collapses runs of hyphens, and trims leading/trailing hyphens.
// Normalizing an already-normalized string is a no-op.
func Normalize(raw string) string {
	s := slug.Make(strings.TrimSpace(raw))
	// slug.Make keeps underscores; the workspace alphabet does not.
	s = strings.ReplaceAll(s, "_", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// Validate normalizes raw and applies the syntax and reserved-word rules
// in order. It returns the normalized subdomain on success. Validate is
// deterministic and has no side effects.
func Validate(raw string) (string, error) {
	s := Normalize(raw)

	if len(s) < MinLength {
		return "", ErrTooShort
	}
	if len(s) > MaxLength {
		return "", ErrTooLong
	}
	if !isLetter(s[0]) {
		return "", ErrInvalidFormat
	}
	if !isLetterOrDigit(s[len(s)-1]) {
		return "", ErrInvalidFormat
	}
	for i := 0; i < len(s); i++ {
		if !isLetterOrDigit(s[i]) && s[i] != '-' {
			return "", ErrInvalidFormat
		}
	}
	if IsReserved(s) {
		return "", ErrReserved
	}

	return s, nil
}

// IsReserved reports whether the name belongs to the reserved set,
// regardless of case.
func IsReserved(name string) bool {
	_, ok := reserved[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ReservedNames returns a copy of the reserved set for display purposes.
func ReservedNames() []string {
	out := make([]string, 0, len(reserved))
	for name := range reserved {
		out = append(out, name)
	}
	return out
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func isLetterOrDigit(b byte) bool {
	return isLetter(b) || (b >= '0' && b <= '9')
}
