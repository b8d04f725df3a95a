// Package errors provides the structured error type used across pulse.
//
// Every failure the realtime layer can surface carries a machine-readable
// ErrorCode, a retryable flag, and optional details. Most of these never
// reach a caller: transport failures and malformed frames only show up as
// status transitions and log lines. The codes that do reach callers are
// ErrCodeInvalidChannel, ErrCodeChannelNotFound and ErrCodeRegistryClosed.
package errors
