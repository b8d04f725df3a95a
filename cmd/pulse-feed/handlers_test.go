package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/httpclient"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/resilience"
	"github.com/kbukum/pulse/sse"
)

func newTestFeed(t *testing.T) (*sse.Hub, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub, err := sse.NewHub(sse.Config{HeartbeatInterval: time.Hour}, sse.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	t.Cleanup(hub.Close)

	engine := gin.New()
	engine.UseRawPath = true
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "publish", Rate: 1000, Burst: 1000})
	(&feedHandlers{hub: hub, limiter: limiter, maxBody: 1024, log: logger.Nop()}).routes(engine)
	return hub, engine
}

func TestPublish(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantErr  errors.ErrorCode
	}{
		{
			name:     "run created",
			path:     "/api/publish/runs:ws_1",
			body:     `{"type":"run_created","payload":{"run_id":"r1"}}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "empty payload",
			path:     "/api/publish/audit:org_1",
			body:     `{"type":"audit_entry_created"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing type",
			path:     "/api/publish/runs:ws_1",
			body:     `{"payload":{}}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  errors.ErrCodeMalformedEvent,
		},
		{
			name:     "wrong domain",
			path:     "/api/publish/audit:org_1",
			body:     `{"type":"run_created"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  errors.ErrCodeMalformedEvent,
		},
		{
			name:     "invalid channel",
			path:     "/api/publish/jobs:1",
			body:     `{"type":"run_created"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidChannel,
		},
		{
			name:     "oversized body",
			path:     "/api/publish/runs:ws_1",
			body:     `{"type":"run_created","payload":{"note":"` + strings.Repeat("x", 2048) + `"}}`,
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  errors.ErrCodePayloadTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hub, engine := newTestFeed(t)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			engine.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
			if tc.wantErr != "" {
				var body errors.ErrorResponse
				json.Unmarshal(rec.Body.Bytes(), &body)
				if body.Error.Code != tc.wantErr {
					t.Errorf("expected %s, got %+v", tc.wantErr, body)
				}
				return
			}

			var body struct {
				Data channel.Event `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if body.Data.ID == "" || len(hub.History(body.Data.Channel)) != 1 {
				t.Errorf("event not recorded: %+v", body.Data)
			}
		})
	}
}

func TestChannels(t *testing.T) {
	hub, engine := newTestFeed(t)
	hub.Publish(channel.Runs("ws_1"), channel.EventRunCreated, channel.RunCreatedPayload{RunID: "r1"})
	hub.Publish(channel.Runs("ws_1"), channel.EventRunCompleted, channel.RunCompletedPayload{RunID: "r1"})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/channels", nil))
	var body struct {
		Data []channelSummary `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Data) != 1 || body.Data[0].History != 2 || body.Data[0].Clients != 0 {
		t.Errorf("unexpected summary %+v", body.Data)
	}
}

func TestStream_ReplayThenLive(t *testing.T) {
	hub, engine := newTestFeed(t)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	runs := channel.Runs("ws_1")
	first, _ := hub.Publish(runs, channel.EventRunCreated, channel.RunCreatedPayload{RunID: "r1"})
	second, _ := hub.Publish(runs, channel.EventRunStatusChanged, channel.RunStatusPayload{RunID: "r1", Status: "running"})

	client, _ := httpclient.New(httpclient.Config{})
	resp, err := client.DoStream(context.Background(), httpclient.Request{
		Path:    srv.URL + "/api/events/runs:ws_1",
		Headers: map[string]string{"Last-Event-ID": first.ID},
	})
	if err != nil {
		t.Fatalf("DoStream failed: %v", err)
	}
	defer resp.Close()

	next := func() channel.Event {
		t.Helper()
		frame, err := resp.SSE.Next()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		ev, err := channel.Decode([]byte(frame.Data))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		return ev
	}

	if ev := next(); ev.ID != second.ID {
		t.Errorf("expected replay of %s, got %s", second.ID, ev.ID)
	}

	waitClients(t, hub, runs, 1)
	live, _ := hub.Publish(runs, channel.EventRunCompleted, channel.RunCompletedPayload{RunID: "r1", Status: "succeeded"})
	if ev := next(); ev.ID != live.ID {
		t.Errorf("expected live %s, got %s", live.ID, ev.ID)
	}
}

func TestFeedConfig(t *testing.T) {
	var cfg FeedConfig
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Name != "pulse-feed" || cfg.Server.Port != 8080 || cfg.Feed.History != 100 || cfg.Publish.MaxBodyBytes != 64<<10 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	cfg.Feed.ClientBuffer = -1
	if err := cfg.Validate(); !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func waitClients(t *testing.T, hub *sse.Hub, name channel.Name, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(name) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients on %s", n, name)
		}
		time.Sleep(time.Millisecond)
	}
}
