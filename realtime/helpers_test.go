package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/realtime"
	"github.com/kbukum/pulse/realtime/realtimetest"
)

const testBaseURL = "http://feed.test/api/events"

var (
	runsWS  = channel.Runs("ws_1")
	auditOr = channel.Audit("org_1")
)

type harness struct {
	reg    *realtime.Registry
	tr     *realtimetest.Transport
	clk    *clock.Mock
	reader *sdkmetric.ManualReader
}

func testConfig() realtime.Config {
	return realtime.Config{
		BaseURL:                testBaseURL,
		InitialReconnectDelay:  time.Second,
		MaxReconnectDelay:      30 * time.Second,
		HeartbeatTimeout:       45 * time.Second,
		HeartbeatCheckInterval: 10 * time.Second,
	}
}

func newHarness(t *testing.T, mutate func(*realtime.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	meter, reader := observability.NewManualMeter("realtime-test")
	h := &harness{
		tr:     realtimetest.New(),
		clk:    clock.NewMock(),
		reader: reader,
	}
	reg, err := realtime.New(cfg, h.tr,
		realtime.WithClock(h.clk),
		realtime.WithLogger(logger.Nop()),
		realtime.WithMeter(meter),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.reg = reg
	t.Cleanup(func() { reg.Close() })
	return h
}

func (h *harness) subscribe(t *testing.T, name channel.Name, fn realtime.Handler) realtime.Unsubscribe {
	t.Helper()
	unsub, err := h.reg.Subscribe(name, fn)
	if err != nil {
		t.Fatalf("Subscribe(%s) failed: %v", name, err)
	}
	return unsub
}

// connect subscribes a no-op handler and opens the resulting stream.
func (h *harness) connect(t *testing.T, name channel.Name) *realtimetest.Stream {
	t.Helper()
	h.subscribe(t, name, nil)
	s := h.tr.Last(name)
	if s == nil {
		t.Fatalf("no stream opened for %s", name)
	}
	s.Open()
	return s
}

func (h *harness) sum(t *testing.T, metricName string) int64 {
	t.Helper()
	v, err := observability.SumInt64(context.Background(), h.reader, metricName)
	if err != nil {
		t.Fatalf("collect %s: %v", metricName, err)
	}
	return v
}

// step advances the mock clock and waits until the heartbeat monitor of
// name has run.
func (h *harness) step(t *testing.T, name channel.Name, d time.Duration) {
	t.Helper()
	gen := realtime.HeartbeatGeneration(h.reg, name)
	h.clk.Add(d)
	waitFor(t, "heartbeat check on "+string(name), func() bool {
		return realtime.HeartbeatGeneration(h.reg, name) != gen
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// settle gives asynchronously fired timers a chance to run before a
// negative assertion.
func settle() { time.Sleep(20 * time.Millisecond) }

func noopMeter() realtime.Option {
	return realtime.WithMeter(noop.NewMeterProvider().Meter("test"))
}

// recorder collects events or statuses delivered by the dispatcher.
type recorder[T any] struct {
	mu    sync.Mutex
	items []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.items = append(r.items, v)
	r.mu.Unlock()
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
