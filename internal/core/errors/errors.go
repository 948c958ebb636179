package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Authorization
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("session token expired")

	// Ticket validation
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrInvalidStatus   = errors.New("invalid ticket status")
	ErrInvalidPriority = errors.New("invalid ticket priority")
	ErrInvalidCategory = errors.New("invalid ticket category")
	ErrInvalidField    = errors.New("unknown editable field")
	ErrNoSelection     = errors.New("no ticket selected")

	// Comment validation
	ErrCommentTextRequired = errors.New("comment text is required")

	// Thread polling
	ErrThreadRequired = errors.New("thread id is required")
	ErrReplyRequired  = errors.New("reply text is required")

	// Generic
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
)

// GatewayErrorKind distinguishes the failure classes seen at the
// remote API boundary.
type GatewayErrorKind string

const (
	// KindTransport means no usable response came back at all.
	KindTransport GatewayErrorKind = "TRANSPORT"
	// KindServerRejected means the backend answered with success:false.
	KindServerRejected GatewayErrorKind = "SERVER_REJECTED"
	// KindUnauthorized means the bearer token was missing or expired.
	KindUnauthorized GatewayErrorKind = "UNAUTHORIZED"
)

// GatewayError wraps failures from the remote ticket API with enough
// context for the caller to decide between rollback, notification, or
// a login redirect.
type GatewayError struct {
	Kind       GatewayErrorKind
	Err        error  // underlying transport or sentinel error
	Message    string // server-supplied or user-facing message
	StatusCode int    // HTTP status, 0 for transport failures
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a failure to reach the backend at all.
func NewTransportError(err error) *GatewayError {
	return &GatewayError{
		Kind:    KindTransport,
		Err:     err,
		Message: "could not reach the ticket service",
	}
}

// NewServerRejectedError wraps a success:false envelope.
func NewServerRejectedError(statusCode int, message string) *GatewayError {
	if message == "" {
		message = "the ticket service rejected the request"
	}
	return &GatewayError{
		Kind:       KindServerRejected,
		Err:        ErrBadRequest,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewUnauthorizedError wraps a 401 or a locally detected expired token.
func NewUnauthorizedError(err error) *GatewayError {
	if err == nil {
		err = ErrUnauthorized
	}
	return &GatewayError{
		Kind:       KindUnauthorized,
		Err:        err,
		Message:    "session expired, please sign in again",
		StatusCode: 401,
	}
}

// IsUnauthorized reports whether err is an authorization failure in any
// of its shapes.
func IsUnauthorized(err error) bool {
	var gw *GatewayError
	if errors.As(err, &gw) && gw.Kind == KindUnauthorized {
		return true
	}
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrTokenExpired)
}

// FieldError carries the per-field message the detail surface shows
// next to a failed edit.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}
