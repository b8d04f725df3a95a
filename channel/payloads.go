package channel

import (
	"encoding/json"
	"time"

	"github.com/kbukum/pulse/errors"
)

// RunStatusPayload accompanies run_status_changed.
type RunStatusPayload struct {
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RunCreatedPayload accompanies run_created.
type RunCreatedPayload struct {
	RunID       string    `json:"run_id"`
	WorkflowID  string    `json:"workflow_id"`
	WorkspaceID string    `json:"workspace_id"`
	TriggeredBy string    `json:"triggered_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunCompletedPayload accompanies run_completed.
type RunCompletedPayload struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// StepPayload accompanies step_started and step_completed.
type StepPayload struct {
	RunID       string     `json:"run_id"`
	StepID      string     `json:"step_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// LogAppendedPayload accompanies log_appended.
type LogAppendedPayload struct {
	RunID    string `json:"run_id"`
	StepID   string `json:"step_id,omitempty"`
	Sequence int64  `json:"sequence"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}

// ApprovalRequestedPayload accompanies approval_requested.
type ApprovalRequestedPayload struct {
	ApprovalID  string     `json:"approval_id"`
	RunID       string     `json:"run_id"`
	StepID      string     `json:"step_id,omitempty"`
	RequestedBy string     `json:"requested_by"`
	Reason      string     `json:"reason,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ApprovalResolvedPayload accompanies approval_resolved.
type ApprovalResolvedPayload struct {
	ApprovalID string    `json:"approval_id"`
	RunID      string    `json:"run_id"`
	Decision   string    `json:"decision"`
	ResolvedBy string    `json:"resolved_by"`
	Comment    string    `json:"comment,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// AuditEntryPayload accompanies audit_entry_created.
type AuditEntryPayload struct {
	EntryID    string         `json:"entry_id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// DecodePayload unmarshals e.Payload into T.
func DecodePayload[T any](e Event) (T, error) {
	var out T
	if len(e.Payload) == 0 {
		return out, errors.MalformedEvent("empty payload", nil).
			WithDetail("event_id", e.ID).
			WithDetail("event_type", string(e.Type))
	}
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return out, errors.MalformedEvent("payload does not match "+string(e.Type), err).
			WithDetail("event_id", e.ID)
	}
	return out, nil
}
