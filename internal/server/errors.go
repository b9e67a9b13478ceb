package server

import (
	"errors"
	"net/http"
	"strings"

	identitydomain "github.com/baselinedocs/baselinedocs/internal/identity/domain"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	"github.com/baselinedocs/baselinedocs/internal/signupintent"
	"github.com/baselinedocs/baselinedocs/internal/subdomain"
	tenantdomain "github.com/baselinedocs/baselinedocs/internal/tenant/domain"
	userdomain "github.com/baselinedocs/baselinedocs/internal/user/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, identitydomain.ErrAuthFailed):
		return http.StatusUnauthorized, errorPayload{
			Type:    "auth_failed",
			Message: "authentication failed",
		}
	case errors.Is(err, identitydomain.ErrAuthUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "auth_unavailable",
			Message: "identity provider unavailable, try again shortly",
		}
	case errors.Is(err, tenantdomain.ErrSubdomainTaken):
		return http.StatusConflict, errorPayload{
			Type:    "subdomain_taken",
			Message: "subdomain is already taken",
		}
	case errors.Is(err, identitydomain.ErrAccountExists):
		return http.StatusConflict, errorPayload{
			Type:    "account_exists",
			Message: "an account with this email already exists",
		}
	case errors.Is(err, provdomain.ErrTenantCreationFailed):
		return http.StatusInternalServerError, errorPayload{
			Type:    "tenant_creation_failed",
			Message: "could not create workspace, try again",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, identitydomain.ErrInvalidRequest),
		errors.Is(err, provdomain.ErrCompanyNameRequired),
		errors.Is(err, provdomain.ErrCompanyNameTooLong),
		errors.Is(err, signupintent.ErrIntentInvalid),
		errors.Is(err, signupintent.ErrIntentExpired),
		errors.Is(err, identitydomain.ErrConfirmationInvalid),
		errors.Is(err, identitydomain.ErrConfirmationExpired):
		return true
	case isSubdomainValidationError(err):
		return true
	default:
		return false
	}
}

func isSubdomainValidationError(err error) bool {
	switch {
	case errors.Is(err, subdomain.ErrTooShort),
		errors.Is(err, subdomain.ErrTooLong),
		errors.Is(err, subdomain.ErrInvalidFormat),
		errors.Is(err, subdomain.ErrReserved):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, identitydomain.ErrProviderNotFound),
		errors.Is(err, identitydomain.ErrRegistrationNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "subdomain_") {
		return "subdomain"
	}
	if strings.HasPrefix(code, "company_name_") {
		return "company_name"
	}
	switch code {
	case "intent_invalid", "intent_expired":
		return "intent"
	case "confirmation_invalid", "confirmation_expired":
		return "token"
	case "invalid_request":
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "subdomain_too_short":
		return "subdomain must be at least 3 characters"
	case "subdomain_too_long":
		return "subdomain must be at most 32 characters"
	case "subdomain_invalid_format":
		return "subdomain may only contain lowercase letters, digits, and hyphens"
	case "subdomain_reserved":
		return "subdomain is reserved"
	case "company_name_required":
		return "company name is required"
	case "company_name_too_long":
		return "company name is too long"
	case "intent_expired":
		return "signup session expired, start over"
	case "confirmation_expired":
		return "confirmation link expired, request a new one"
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog buckets errors for the request log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status == http.StatusBadRequest:
		return "validation", payload.Type
	case status == http.StatusUnauthorized:
		return "auth", payload.Type
	case status == http.StatusConflict:
		return "conflict", payload.Type
	case status == http.StatusNotFound:
		return "not_found", payload.Type
	case status == http.StatusServiceUnavailable:
		return "unavailable", payload.Type
	default:
		return "internal", payload.Type
	}
}
