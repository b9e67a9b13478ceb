// Package domain contains core types for the identity providers that
// feed tenant signup.
package domain

import "errors"

// Identity is a verified principal returned by an identity provider,
// either a federated OAuth provider or the local email/password flow.
type Identity struct {
	Provider    string
	ExternalID  string
	Email       string
	DisplayName string
}

var (
	// ErrAuthFailed means the provider answered and rejected the
	// credentials or authorization code.
	ErrAuthFailed = errors.New("auth_failed")
	// ErrAuthUnavailable means the provider could not be reached, so
	// the caller cannot tell whether the credentials were valid.
	ErrAuthUnavailable = errors.New("auth_unavailable")

	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidRequest   = errors.New("invalid_request")

	// ErrAccountExists means the email or external subject is already
	// attached to a provisioned user.
	ErrAccountExists = errors.New("account_exists")

	ErrConfirmationExpired  = errors.New("confirmation_expired")
	ErrConfirmationInvalid  = errors.New("confirmation_invalid")
	ErrRegistrationNotFound = errors.New("registration_not_found")
)
