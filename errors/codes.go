package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Caller errors, returned synchronously.
const (
	// ErrCodeInvalidChannel indicates a malformed channel name.
	ErrCodeInvalidChannel ErrorCode = "INVALID_CHANNEL"
	// ErrCodeChannelNotFound indicates an operation on a channel with no active state.
	ErrCodeChannelNotFound ErrorCode = "CHANNEL_NOT_FOUND"
	// ErrCodeRegistryClosed indicates the registry has been closed.
	ErrCodeRegistryClosed ErrorCode = "REGISTRY_CLOSED"
	// ErrCodeInvalidConfig indicates a configuration value is out of range.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Stream errors, recovered internally and reflected as status.
const (
	// ErrCodeTransportFailed indicates the transport failed to open or dropped.
	ErrCodeTransportFailed ErrorCode = "TRANSPORT_FAILED"
	// ErrCodeMalformedEvent indicates an inbound frame could not be decoded.
	ErrCodeMalformedEvent ErrorCode = "MALFORMED_EVENT"
	// ErrCodeReconnectExhausted indicates the reconnect attempt budget ran out.
	ErrCodeReconnectExhausted ErrorCode = "RECONNECT_EXHAUSTED"
	// ErrCodeHandlerPanic indicates a subscriber handler panicked.
	ErrCodeHandlerPanic ErrorCode = "HANDLER_PANIC"
)

// Feed server errors
const (
	// ErrCodeRateLimited indicates a caller exceeded the publish rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeStreamLimit indicates the feed is serving its maximum number of streams.
	ErrCodeStreamLimit ErrorCode = "STREAM_LIMIT"
	// ErrCodePayloadTooLarge indicates a request body exceeded its size limit.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransportFailed:    true,
	ErrCodeReconnectExhausted: true,
	ErrCodeRateLimited:        true,
	ErrCodeStreamLimit:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
