package channel

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/validation"
)

var registerRules sync.Once

func ensureRules() {
	registerRules.Do(func() {
		// Registration only fails for an empty tag or nil func.
		_ = validation.RegisterRule("channel_name", func(s string) bool {
			return Validate(s) == nil
		})
	})
}

// Decode parses an SSE data field into an Event.
//
// Heartbeats are returned as soon as their type is known and skip envelope
// validation. Any other event must carry an id, a type and a valid channel
// name; failures are MALFORMED_EVENT errors.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, errors.MalformedEvent("invalid JSON", err)
	}
	if ev.IsHeartbeat() {
		return ev, nil
	}

	ensureRules()
	if err := validation.Validate(ev); err != nil {
		return Event{}, errors.MalformedEvent("envelope validation failed", err)
	}
	return ev, nil
}

// DecodeOn decodes a frame received on the stream for name. Besides the
// checks of Decode, a business event must name that same channel.
func DecodeOn(name Name, data []byte) (Event, error) {
	ev, err := Decode(data)
	if err != nil || ev.IsHeartbeat() {
		return ev, err
	}
	if ev.Channel != name {
		return Event{}, errors.MalformedEvent(
			fmt.Sprintf("event for %q received on %q", ev.Channel, name), nil,
		).WithDetail("channel", string(name))
	}
	return ev, nil
}

// Encode marshals e into the JSON carried in an SSE data field.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}
