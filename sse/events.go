package sse

import (
	"io"

	"github.com/kbukum/pulse/channel"
	wire "github.com/kbukum/pulse/httpclient/sse"
)

// EventTypeMessage is the SSE event name used for every frame.
const EventTypeMessage = "message"

var heartbeatData = `{"type":"` + string(channel.EventHeartbeat) + `"}`

// WriteEvent writes ev as one SSE frame carrying its id.
func WriteEvent(w io.Writer, ev channel.Event) error {
	data, err := channel.Encode(ev)
	if err != nil {
		return err
	}
	return wire.Write(w, wire.Event{ID: ev.ID, Event: EventTypeMessage, Data: string(data)})
}

// WriteHeartbeat writes a heartbeat frame. It has no id line.
func WriteHeartbeat(w io.Writer) error {
	return wire.Write(w, wire.Event{Event: EventTypeMessage, Data: heartbeatData})
}
