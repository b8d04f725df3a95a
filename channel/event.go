package channel

import (
	"encoding/json"
	"time"
)

// EventType tags an event within its domain.
type EventType string

// EventHeartbeat is the reserved liveness event. It belongs to no domain and
// is never delivered to subscribers.
const EventHeartbeat EventType = "heartbeat"

// runs domain
const (
	EventRunStatusChanged EventType = "run_status_changed"
	EventRunCreated       EventType = "run_created"
	EventRunCompleted     EventType = "run_completed"
)

// run domain, in addition to EventRunStatusChanged
const (
	EventStepStarted   EventType = "step_started"
	EventStepCompleted EventType = "step_completed"
	EventLogAppended   EventType = "log_appended"
)

// approvals domain
const (
	EventApprovalRequested EventType = "approval_requested"
	EventApprovalResolved  EventType = "approval_resolved"
)

// audit domain
const (
	EventAuditEntryCreated EventType = "audit_entry_created"
)

var domainEvents = map[Type][]EventType{
	TypeRuns:      {EventRunStatusChanged, EventRunCreated, EventRunCompleted},
	TypeRun:       {EventRunStatusChanged, EventStepStarted, EventStepCompleted, EventLogAppended},
	TypeApprovals: {EventApprovalRequested, EventApprovalResolved},
	TypeAudit:     {EventAuditEntryCreated},
}

// EventTypes returns the event tags declared for t.
func (t Type) EventTypes() []EventType {
	src := domainEvents[t]
	out := make([]EventType, len(src))
	copy(out, src)
	return out
}

// BelongsTo reports whether et is declared for domain t.
func (et EventType) BelongsTo(t Type) bool {
	for _, e := range domainEvents[t] {
		if e == et {
			return true
		}
	}
	return false
}

// Event is the envelope carried in every SSE data field.
type Event struct {
	ID        string          `json:"id" validate:"required"`
	Type      EventType       `json:"type" validate:"required"`
	Channel   Name            `json:"channel" validate:"required,channel_name"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// IsHeartbeat reports whether e is a liveness frame.
func (e Event) IsHeartbeat() bool {
	return e.Type == EventHeartbeat
}

// Domain returns the type of the channel the event was published on.
func (e Event) Domain() Type {
	return e.Channel.Type()
}
