package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent  = "component"
	FieldChannel    = "channel"
	FieldStatus     = "status"
	FieldPrevStatus = "prev_status"
	FieldAttempt    = "attempt"
	FieldDelay      = "delay_ms"
	FieldEventID    = "event_id"
	FieldEventType  = "event_type"
	FieldSubscriber = "subscriber_id"
	FieldURL        = "url"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("opened", logger.Fields("channel", name, "attempt", 2))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ChannelFields creates fields identifying a channel and its current status.
func ChannelFields(channel, status string) map[string]interface{} {
	return map[string]interface{}{
		FieldChannel: channel,
		FieldStatus:  status,
	}
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields[FieldError] = err.Error()
	}
	return fields
}

// MergeWithDelay adds a delay field, in milliseconds, to an existing map.
func MergeWithDelay(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDelay] = d.Milliseconds()
	return fields
}
