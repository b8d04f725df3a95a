package httpclient

import (
	"context"
	"io"
	"net/http"

	"github.com/kbukum/pulse/httpclient/sse"
)

// Request describes an outbound streaming request.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL.
	Path string
	// Headers are merged over the client defaults.
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
}

// StreamResponse wraps a streaming HTTP response.
type StreamResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Proto is the negotiated protocol, e.g. "HTTP/2.0".
	Proto string
	// Headers are the response headers.
	Headers map[string]string
	// SSE reads text/event-stream bodies. Nil for other content types.
	SSE *sse.Reader
	// Body is the raw body for non-SSE streams.
	Body io.ReadCloser

	rawResp *http.Response
	cancel  context.CancelFunc
}

// IsSSE reports whether the response carries server-sent events.
func (r *StreamResponse) IsSSE() bool { return r.SSE != nil }

// Close releases the connection. It is safe to call more than once.
func (r *StreamResponse) Close() error {
	if r.cancel != nil {
		defer r.cancel()
	}
	switch {
	case r.SSE != nil:
		return r.SSE.Close()
	case r.Body != nil:
		return r.Body.Close()
	case r.rawResp != nil && r.rawResp.Body != nil:
		return r.rawResp.Body.Close()
	}
	return nil
}
