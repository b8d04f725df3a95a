// Package sse reads and writes the text/event-stream wire format.
package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MaxLineSize bounds a single field line. Longer lines fail the stream
// with bufio.ErrTooLong.
const MaxLineSize = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	// Event is the "event:" field. Empty means "message".
	Event string
	// Data joins the "data:" lines with newlines.
	Data string
	// ID is the last event ID in effect when the event was dispatched.
	ID string
	// Retry is the reconnection time the server asked for, 0 if none.
	Retry time.Duration
}

// Reader parses events from a stream.
type Reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser

	lastID    string
	closeOnce sync.Once
	closeErr  error
}

// NewReader returns a Reader over body.
func NewReader(body io.ReadCloser) *Reader {
	s := bufio.NewScanner(body)
	s.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return &Reader{scanner: s, body: body}
}

// LastEventID returns the most recent "id:" value seen, dispatched or not.
func (r *Reader) LastEventID() string { return r.lastID }

// Next blocks until the next event is complete. It returns io.EOF when the
// stream ends cleanly; a trailing event without its blank line is dropped.
func (r *Reader) Next() (Event, error) {
	var (
		ev      Event
		data    strings.Builder
		hasData bool
	)

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if !hasData {
				ev = Event{}
				continue
			}
			ev.Data = data.String()
			ev.ID = r.lastID
			return ev, nil
		}
		if line[0] == ':' {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			ev.Event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				ev.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Close releases the body. It is safe to call more than once and from
// another goroutine to unblock Next.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() { r.closeErr = r.body.Close() })
	return r.closeErr
}

func parseLine(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
