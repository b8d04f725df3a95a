// Package ssetransport opens realtime streams as HTTP text/event-stream
// requests.
//
//	client, _ := httpclient.New(httpclient.Config{H2C: true})
//	reg, _ := realtime.New(cfg, ssetransport.New(client))
package ssetransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pulse/httpclient"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/realtime"
)

// ErrNotEventStream is reported when the server answers with a body that
// is not text/event-stream.
var ErrNotEventStream = errors.New("response is not text/event-stream")

// Transport implements realtime.Transport over a streaming HTTP client.
type Transport struct {
	client *httpclient.Client
}

var _ realtime.Transport = (*Transport)(nil)

// New creates a Transport. Request URLs come from OpenRequest.URL, so the
// client needs no BaseURL.
func New(client *httpclient.Client) *Transport {
	return &Transport{client: client}
}

// Open dials in the background and returns immediately.
func (t *Transport) Open(req realtime.OpenRequest, h realtime.Handlers) realtime.Stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stream{cancel: cancel}
	go s.run(ctx, t.client, req, h)
	return s
}

type stream struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	resp   *httpclient.StreamResponse
	closed bool
}

// Close cancels the request and releases the response body.
func (s *stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	resp := s.resp
	s.mu.Unlock()

	s.cancel()
	if resp != nil {
		_ = resp.Close()
	}
}

func (s *stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stream) run(ctx context.Context, client *httpclient.Client, req realtime.OpenRequest, h realtime.Handlers) {
	resp, err := dial(ctx, client, req)
	if err != nil {
		if !s.isClosed() {
			h.OnError(err)
		}
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = resp.Close()
		return
	}
	s.resp = resp
	s.mu.Unlock()

	h.OnOpen()
	for {
		ev, err := resp.SSE.Next()
		if err != nil {
			if s.isClosed() {
				return
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			h.OnError(fmt.Errorf("reading stream: %w", err))
			return
		}
		h.OnMessage(realtime.Frame{ID: ev.ID, Event: ev.Event, Data: ev.Data})
	}
}

func dial(ctx context.Context, client *httpclient.Client, req realtime.OpenRequest) (*httpclient.StreamResponse, error) {
	_, span := observability.StartSpan(ctx, observability.SpanStreamDial,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.AttrChannel.String(string(req.Channel)),
			observability.AttrURL.String(req.URL),
			attribute.Int("pulse.attempt", req.Attempt),
		),
	)
	defer span.End()

	headers := map[string]string{
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
	}
	if req.LastEventID != "" {
		headers["Last-Event-ID"] = req.LastEventID
		span.SetAttributes(observability.AttrLastEventID.String(req.LastEventID))
	}

	resp, err := client.DoStream(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    req.URL,
		Headers: headers,
	})
	if err != nil {
		if code := httpclient.StatusCode(err); code != 0 {
			span.SetAttributes(observability.AttrStatusCode.Int(code))
		}
		observability.SetSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(observability.AttrStatusCode.Int(resp.StatusCode))

	if !resp.IsSSE() {
		_ = resp.Close()
		observability.SetSpanError(span, ErrNotEventStream)
		return nil, ErrNotEventStream
	}
	return resp, nil
}
