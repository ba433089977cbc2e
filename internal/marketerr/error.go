// Package marketerr implements the error taxonomy that rides on event-bus
// values. It is shaped after internal/apperror (functional options, a
// Code-like classifier, cause wrapping) but is a distinct type: apperror
// covers ambient failures outside the hot path, Error here is the thing a
// consumer's event handler actually switches on.
package marketerr

import (
	"errors"
	"fmt"
	"time"
)

// Error is a classified market-data failure.
type Error struct {
	Kind      Kind
	Message   string
	Symbol    string // optional: empty for connection-level failures
	Context   string
	Timestamp time.Time

	cause         error
	retryAfter    time.Duration
	hasRetryAfter bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Symbol, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error by Kind, the same convention apperror.AppError
// uses for Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Option configures an Error at construction.
type Option func(*Error)

// WithMessage sets a human-readable message; without it the message is a
// short description of the Kind (the Kind's name for an unknown Kind).
func WithMessage(msg string) Option {
	return func(e *Error) { e.Message = msg }
}

// WithSymbol attaches the instrument the failure pertains to.
func WithSymbol(symbol string) Option {
	return func(e *Error) { e.Symbol = symbol }
}

// WithContext adds free-form diagnostic context.
func WithContext(ctx string) Option {
	return func(e *Error) { e.Context = ctx }
}

// WithCause wraps an underlying error (a dial error, a JSON decode error).
func WithCause(cause error) Option {
	return func(e *Error) { e.cause = cause }
}

// WithRetryAfter records a venue-specified retry delay, e.g. from a rate
// limit response. Kinds with no venue-specified delay fall back to the
// reconnect policy's own backoff.
func WithRetryAfter(d time.Duration) Option {
	return func(e *Error) {
		e.retryAfter = d
		e.hasRetryAfter = true
	}
}

// New constructs an Error of the given Kind.
func New(kind Kind, opts ...Option) *Error {
	e := &Error{
		Kind:      kind,
		Message:   defaultMessage(kind),
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsRetryable reports whether the operation that produced this error can
// reasonably be retried (by the session manager's reconnect policy, or by
// a resubscribe) rather than surfaced to the consumer as terminal.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case ConnectionFailed, ConnectionClosed, ConnectionTimeout, ChecksumMismatch, RateLimited, OutOfOrder:
		return true
	case ParseError, SubscriptionRejected, AuthenticationFailed, Overflow, Internal:
		return false
	default:
		return false
	}
}

// RetryAfter returns a venue- or policy-suggested delay before retrying,
// if one is known. The bool reports whether a delay was set; callers
// without one should fall back to the reconnect policy's own backoff.
func (e *Error) RetryAfter() (time.Duration, bool) {
	return e.retryAfter, e.hasRetryAfter
}

// RequiresReconnect reports whether recovering from this error requires
// tearing down and re-establishing the transport connection, as opposed
// to a lighter-weight recovery (resubscribe, resync from a fresh snapshot)
// that can happen over the existing connection.
func (e *Error) RequiresReconnect() bool {
	switch e.Kind {
	case ConnectionFailed, ConnectionClosed, ConnectionTimeout, AuthenticationFailed:
		return true
	default:
		return false
	}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case ConnectionFailed:
		return "connection to venue failed"
	case ConnectionClosed:
		return "connection closed"
	case ConnectionTimeout:
		return "no heartbeat received within watchdog window"
	case ParseError:
		return "failed to decode venue frame"
	case ChecksumMismatch:
		return "orderbook checksum did not match venue"
	case SubscriptionRejected:
		return "venue rejected subscription request"
	case RateLimited:
		return "venue rate limit exceeded"
	case AuthenticationFailed:
		return "venue rejected credentials"
	case OutOfOrder:
		return "update sequence out of order"
	case Overflow:
		return "internal buffer overflow, data dropped"
	case Internal:
		return "internal error"
	default:
		return string(kind)
	}
}

// As extracts a *Error from err, the same pattern as apperror.IsAppError.
func As(err error) (*Error, bool) {
	var me *Error
	ok := errors.As(err, &me)
	return me, ok
}

// OfKind reports whether err is a *Error of the given Kind.
func OfKind(err error, kind Kind) bool {
	me, ok := As(err)
	return ok && me.Kind == kind
}
