package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/kbukum/pulse/httpclient/sse"
)

// Client opens long-lived HTTP streams.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a streaming client for cfg.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	var rt http.RoundTripper
	if cfg.H2C {
		rt = &http2.Transport{
			AllowHTTP:       true,
			ReadIdleTimeout: cfg.ReadIdleTimeout,
			PingTimeout:     cfg.PingTimeout,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
		}
	} else {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = dialer.DialContext
		rt = t
	}

	// No client timeout: it would cut streams off mid-body.
	return &Client{
		httpClient: &http.Client{Transport: rt},
		config:     cfg,
	}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// Unwrap returns the underlying *http.Client.
func (c *Client) Unwrap() *http.Client { return c.httpClient }

// CloseIdleConnections closes pooled connections not carrying a stream.
func (c *Client) CloseIdleConnections() { c.httpClient.CloseIdleConnections() }

// DoStream sends req and returns the open response stream. Status codes of
// 400 and above are returned as classified errors with the body consumed.
// Headers must arrive within HeaderTimeout on both transports. The caller
// must Close the response; cancelling ctx also ends it.
func (c *Client) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	headerTimer := time.AfterFunc(c.config.HeaderTimeout, cancel)
	resp, err := c.httpClient.Do(httpReq)
	timedOut := !headerTimer.Stop()
	if err != nil {
		ctxErr := ctx.Err()
		cancel()
		switch {
		case timedOut:
			return nil, NewTimeoutError(fmt.Errorf("no response headers within %v: %w", c.config.HeaderTimeout, err))
		case ctxErr != nil:
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	if timedOut {
		// Headers raced the timer; the request context is already cancelled.
		_ = resp.Body.Close()
		cancel()
		return nil, NewTimeoutError(fmt.Errorf("no response headers within %v", c.config.HeaderTimeout))
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		return nil, ClassifyStatusCode(resp.StatusCode, body)
	}

	out := &StreamResponse{
		StatusCode: resp.StatusCode,
		Proto:      resp.Proto,
		Headers:    flattenHeaders(resp.Header),
		rawResp:    resp,
		cancel:     cancel,
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		out.SSE = sse.NewReader(resp.Body)
	} else {
		out.Body = resp.Body
	}
	return out, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// flattenHeaders keeps the first value of each header.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
