package vrchat

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Reason texts carried by the 200-but-unauthorized answer of GET /auth/user.
const (
	ReasonEmailTwoFactor = "Email 2 Factor Authentication verification is required"
	ReasonTwoFactor      = "2 Factor Authentication verification is required"
)

var (
	// ErrUnauthorized matches any APIError that means the session is not (or
	// not yet) authorized: HTTP 401, or 200 with a pending 2FA requirement.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCodeRejected is returned by the verify endpoints when the upstream
	// answers {"verified": false}.
	ErrCodeRejected = errors.New("verification code rejected")
)

// APIError is a non-success answer from the upstream API.
type APIError struct {
	Status int
	Reason string
	Body   []byte
	// TwoFactorMethods is set when GET /auth/user answered 200 with a list of
	// required verification methods instead of a user.
	TwoFactorMethods []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vrchat api: [%d] %s", e.Status, e.Reason)
}

// Is makes errors.Is(err, ErrUnauthorized) work through wrapping.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Unauthorized()
}

// Unauthorized reports whether this error denies access to the session.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.TwoFactorRequired()
}

// TwoFactorRequired reports the "needs verification" sentinel: status 200
// with pending verification methods.
func (e *APIError) TwoFactorRequired() bool {
	return e.Status == http.StatusOK && len(e.TwoFactorMethods) > 0
}

func twoFactorError(methods []string, body []byte) *APIError {
	var reason string
	switch {
	case slices.Contains(methods, "emailOtp"):
		reason = ReasonEmailTwoFactor
	case slices.Contains(methods, "totp"), slices.Contains(methods, "otp"):
		reason = ReasonTwoFactor
	default:
		reason = "Unsupported verification required: " + strings.Join(methods, ", ")
	}
	return &APIError{
		Status:           http.StatusOK,
		Reason:           reason,
		Body:             body,
		TwoFactorMethods: methods,
	}
}
