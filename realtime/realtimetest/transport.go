// Package realtimetest provides a scriptable in-memory Transport.
package realtimetest

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/realtime"
)

// Transport records every Open and hands back a controllable Stream.
type Transport struct {
	// AutoOpen signals OnOpen synchronously from Open.
	AutoOpen bool

	mu      sync.Mutex
	streams []*Stream
}

// New returns a Transport that leaves streams in the opening state until
// the test calls Open.
func New() *Transport { return &Transport{} }

var _ realtime.Transport = (*Transport)(nil)

// Open implements realtime.Transport.
func (t *Transport) Open(req realtime.OpenRequest, h realtime.Handlers) realtime.Stream {
	s := &Stream{req: req, h: h}
	t.mu.Lock()
	t.streams = append(t.streams, s)
	auto := t.AutoOpen
	t.mu.Unlock()

	if auto {
		s.Open()
	}
	return s
}

// Streams returns every stream opened so far, oldest first.
func (t *Transport) Streams() []*Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Stream, len(t.streams))
	copy(out, t.streams)
	return out
}

// OpenCount returns the number of Open calls.
func (t *Transport) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.streams)
}

// OpenCountFor returns the number of Open calls for name.
func (t *Transport) OpenCountFor(name channel.Name) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.streams {
		if s.req.Channel == name {
			n++
		}
	}
	return n
}

// Last returns the most recent stream for name, or nil.
func (t *Transport) Last(name channel.Name) *Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.streams) - 1; i >= 0; i-- {
		if t.streams[i].req.Channel == name {
			return t.streams[i]
		}
	}
	return nil
}

// Stream is a fake connection driven by the test.
type Stream struct {
	req realtime.OpenRequest
	h   realtime.Handlers

	mu     sync.Mutex
	closed bool
	seq    int
}

// Req returns the request the stream was opened with.
func (s *Stream) Req() realtime.OpenRequest { return s.req }

// Open signals a successful connection.
func (s *Stream) Open() { s.h.OnOpen() }

// Send delivers a raw frame.
func (s *Stream) Send(f realtime.Frame) { s.h.OnMessage(f) }

// SendData delivers a frame with the given id and data.
func (s *Stream) SendData(id, data string) {
	s.Send(realtime.Frame{ID: id, Event: "message", Data: data})
}

// SendEvent encodes an event of type et on the stream's channel and
// delivers it. It returns the event ID.
func (s *Stream) SendEvent(et channel.EventType, payload any) string {
	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("%s-%d", s.req.Channel, s.seq)
	s.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	ev := channel.Event{
		ID:        id,
		Type:      et,
		Channel:   s.req.Channel,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Payload:   raw,
	}
	data, err := channel.Encode(ev)
	if err != nil {
		panic(err)
	}
	s.SendData(id, string(data))
	return id
}

// SendHeartbeat delivers a heartbeat frame.
func (s *Stream) SendHeartbeat() {
	s.Send(realtime.Frame{Event: "message", Data: `{"type":"heartbeat"}`})
}

// Fail signals a transport error.
func (s *Stream) Fail(err error) {
	if err == nil {
		err = fmt.Errorf("connection reset")
	}
	s.h.OnError(err)
}

// Close implements realtime.Stream.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the registry closed the stream.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
