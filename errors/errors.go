package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status used when the error is rendered over HTTP.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code, so callers can
// match with errors.Is(err, errors.InvalidChannel("", "")).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// IsCode reports whether err is (or wraps) an AppError carrying code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// --- Constructors ---

// InvalidChannel creates an error for a channel name that does not match the
// "<type>:<identifier>" grammar.
func InvalidChannel(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidChannel, Message: fmt.Sprintf("Invalid channel %q: %s", name, reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"channel": name},
	}
}

// ChannelNotFound creates an error for an operation on a channel that has no subscribers.
func ChannelNotFound(name string) *AppError {
	return &AppError{
		Code: ErrCodeChannelNotFound, Message: fmt.Sprintf("Channel %q has no active subscription.", name),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"channel": name},
	}
}

// RegistryClosed creates an error for use of a closed registry.
func RegistryClosed() *AppError {
	return &AppError{
		Code: ErrCodeRegistryClosed, Message: "The realtime registry has been closed.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: false,
	}
}

// InvalidConfig creates an error for a configuration field with a bad value.
func InvalidConfig(field, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration for %s: %s", field, reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// TransportFailed wraps a transport-level failure on a channel.
func TransportFailed(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransportFailed, Message: fmt.Sprintf("Stream for channel %q failed.", name),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"channel": name}, Cause: cause,
	}
}

// MalformedEvent creates an error for a frame that could not be decoded.
func MalformedEvent(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedEvent, Message: fmt.Sprintf("Malformed event: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Cause: cause,
	}
}

// ReconnectExhausted creates an error for a channel that ran out of reconnect attempts.
func ReconnectExhausted(name string, attempts int) *AppError {
	return &AppError{
		Code: ErrCodeReconnectExhausted, Message: fmt.Sprintf("Channel %q gave up after %d reconnect attempts.", name, attempts),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"channel": name, "attempts": attempts},
	}
}

// HandlerPanic creates an error describing a recovered subscriber panic.
func HandlerPanic(name string, recovered any) *AppError {
	return &AppError{
		Code: ErrCodeHandlerPanic, Message: fmt.Sprintf("Subscriber handler on %q panicked: %v", name, recovered),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"channel": name},
	}
}

// RateLimited creates an error for a request rejected by a rate limit.
func RateLimited(scope string) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: fmt.Sprintf("Rate limit exceeded for %s.", scope),
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"scope": scope},
	}
}

// StreamLimit creates an error for a stream refused because max are open.
func StreamLimit(max int) *AppError {
	return &AppError{
		Code: ErrCodeStreamLimit, Message: fmt.Sprintf("The feed is serving its limit of %d streams.", max),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"max_streams": max},
	}
}

// PayloadTooLarge creates an error for a request body over limit bytes.
func PayloadTooLarge(limit int64) *AppError {
	return &AppError{
		Code: ErrCodePayloadTooLarge, Message: fmt.Sprintf("Request body exceeds %d bytes.", limit),
		HTTPStatus: http.StatusRequestEntityTooLarge, Retryable: false,
		Details: map[string]any{"limit_bytes": limit},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
