// Package errs defines the sentinel errors shared across service, gateway
// and handler layers. Handlers translate them to HTTP statuses; everything
// unrecognized surfaces as a 500.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrTicketNotFound  = errors.New("ticket not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user with this email already exists")

	// ErrRemoteNotFound and ErrRemoteUnavailable are distinct so callers can
	// tell "GLPI says 404" apart from "GLPI is down". Both degrade to a 404
	// at the HTTP boundary; a remote outage must never become a 5xx.
	ErrRemoteNotFound    = errors.New("remote ticket not found")
	ErrRemoteUnavailable = errors.New("remote ticketing system unavailable")

	// ErrAINotConfigured fails fast before any model call when the AI
	// credentials are missing.
	ErrAINotConfigured = errors.New("AI credentials not configured")
)

// ValidationError reports a schema mismatch on a request body. It renders as
// 400 {message, field}.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}
