package httpclient

import (
	"errors"
	"fmt"
	"testing"
)

func asError(err error, target **Error) bool {
	return errors.As(err, target)
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{429, ErrCodeRateLimit, true},
		{400, ErrCodeValidation, false},
		{422, ErrCodeValidation, false},
		{500, ErrCodeServer, true},
		{502, ErrCodeServer, true},
		{302, ErrCodeServer, false},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			e := ClassifyStatusCode(tc.status, nil)
			if e == nil {
				t.Fatal("expected error")
			}
			if e.Code != tc.code || e.Retryable != tc.retryable || e.StatusCode != tc.status {
				t.Errorf("got %+v, want code %s retryable %v", e, tc.code, tc.retryable)
			}
		})
	}

	if ClassifyStatusCode(200, nil) != nil || ClassifyStatusCode(204, nil) != nil {
		t.Error("2xx should not classify as an error")
	}
}

func TestErrorFormatting(t *testing.T) {
	e := ClassifyStatusCode(503, nil)
	if e.Error() != "httpclient: server (HTTP 503): Service Unavailable" {
		t.Errorf("unexpected message %q", e.Error())
	}

	cause := errors.New("connection refused")
	ce := NewConnectionError(cause)
	if ce.Error() != "httpclient: connection: connection refused" {
		t.Errorf("unexpected message %q", ce.Error())
	}
	if !errors.Is(fmt.Errorf("dial: %w", ce), cause) {
		t.Error("expected cause reachable through wrapping")
	}
	if ErrorCode(99).String() != "unknown" {
		t.Error("expected unknown code name")
	}
}

func TestPredicates(t *testing.T) {
	timeout := NewTimeoutError(errors.New("deadline"))
	if !IsTimeout(timeout) || !IsRetryable(timeout) {
		t.Error("timeout should be retryable")
	}
	if IsRetryable(errors.New("plain")) || StatusCode(errors.New("plain")) != 0 {
		t.Error("plain errors are neither classified nor retryable")
	}
	if IsRetryable(NewValidationError("bad")) {
		t.Error("validation errors are not retryable")
	}
}
