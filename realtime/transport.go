package realtime

import (
	"net/url"
	"strings"

	"github.com/kbukum/pulse/channel"
)

// Frame is one server-sent event as received on the wire.
type Frame struct {
	ID    string
	Event string
	Data  string
}

// OpenRequest describes a stream to open.
type OpenRequest struct {
	Channel channel.Name
	URL     string
	// LastEventID is the last event ID seen on this channel, empty on the
	// first connection.
	LastEventID string
	// Attempt counts consecutive failures before this open; 0 on a fresh
	// subscription or after a successful open.
	Attempt int
}

// Handlers receives transport callbacks. They may be invoked from any
// goroutine, including before Open returns.
type Handlers struct {
	OnOpen    func()
	OnMessage func(Frame)
	OnError   func(error)
}

// Stream is an open (or opening) transport.
type Stream interface {
	// Close releases the stream. It must not block and must be safe to call
	// more than once. No callbacks are required after Close.
	Close()
}

// Transport opens streams. Open must not block on the network; it reports
// the outcome through h. A transport never reconnects on its own.
type Transport interface {
	Open(req OpenRequest, h Handlers) Stream
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(req OpenRequest, h Handlers) Stream

func (f TransportFunc) Open(req OpenRequest, h Handlers) Stream { return f(req, h) }

// ChannelURL returns the stream URL for name under baseURL.
func ChannelURL(baseURL string, name channel.Name) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(string(name))
}
