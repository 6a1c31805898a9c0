package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind names a failure class callers can branch on.
type ErrorKind string

const (
	KindConfig                  ErrorKind = "config_error"
	KindInvalidPhone            ErrorKind = "invalid_phone"
	KindInvalidCode             ErrorKind = "invalid_code"
	KindInvalidPassword         ErrorKind = "invalid_password"
	KindRateLimited             ErrorKind = "rate_limited"
	KindCodeDeliveryUnavailable ErrorKind = "code_delivery_unavailable"
	KindProvider                ErrorKind = "provider_error"
	KindDeliveryFailed          ErrorKind = "delivery_failed"
	KindAlreadyAuthorized       ErrorKind = "already_authorized"
	KindInvalidState            ErrorKind = "invalid_state"
)

// Error is the discriminated error returned by the login flow, the provider
// adapter and the dispatcher. errors.Is matches on Kind alone.
type Error struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Kind == KindRateLimited && e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidPhone            = &Error{Kind: KindInvalidPhone, Message: "invalid phone number"}
	ErrInvalidCode             = &Error{Kind: KindInvalidCode, Message: "invalid login code"}
	ErrInvalidPassword         = &Error{Kind: KindInvalidPassword, Message: "invalid 2FA password"}
	ErrRateLimited             = &Error{Kind: KindRateLimited, Message: "rate limited by provider"}
	ErrCodeDeliveryUnavailable = &Error{Kind: KindCodeDeliveryUnavailable, Message: "login code cannot be delivered"}
	ErrProvider                = &Error{Kind: KindProvider, Message: "provider error"}
	ErrDeliveryFailed          = &Error{Kind: KindDeliveryFailed, Message: "webhook delivery failed"}
	ErrAlreadyAuthorized       = &Error{Kind: KindAlreadyAuthorized, Message: "already authorized"}
	ErrInvalidState            = &Error{Kind: KindInvalidState, Message: "operation not valid in current login state"}
	ErrConfig                  = &Error{Kind: KindConfig, Message: "invalid configuration"}
)

// Signals from the provider that are not failures of the login flow itself.
var (
	ErrSecondFactorRequired = errors.New("2FA password required")
	ErrCodeExpired          = errors.New("login code expired")
)

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func RateLimited(retryAfter time.Duration, err error) *Error {
	return &Error{Kind: KindRateLimited, Message: "rate limited by provider", RetryAfter: retryAfter, Err: err}
}

func ProviderError(err error) *Error {
	return &Error{Kind: KindProvider, Message: "provider error", Err: err}
}

func DeliveryFailed(err error) *Error {
	return &Error{Kind: KindDeliveryFailed, Message: "webhook delivery failed", Err: err}
}

func ConfigError(problems []string) *Error {
	return &Error{Kind: KindConfig, Message: "invalid configuration: " + strings.Join(problems, "; ")}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// RetryAfterOf returns the cool-down carried by a rate limit error.
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}
