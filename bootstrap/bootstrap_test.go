package bootstrap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/pulse/component"
	"github.com/kbukum/pulse/config"
	"github.com/kbukum/pulse/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	status   component.HealthStatus
	log      *[]string
	mu       *sync.Mutex
}

func (m *mockComponent) record(what string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.log = append(*m.log, what+":"+m.name)
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	m.record("start")
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	m.record("stop")
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) component.Health {
	s := m.status
	if s == "" {
		s = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: s}
}

type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) component(name string) *mockComponent {
	return &mockComponent{name: name, log: &r.log, mu: &r.mu}
}

func (r *recorder) hook(name string, err error) Hook {
	return func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.log = append(r.log, "hook:"+name)
		return err
	}
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.log, ",")
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "pulse-test", Version: "0.1.0"}},
		WithLogger(logger.Nop()), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "pulse-test" || app.Version != "0.1.0" {
		t.Errorf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("expected graceful timeout option, got %v", app.gracefulTimeout)
	}

	if _, err := NewApp(&testConfig{}); err == nil || !strings.Contains(err.Error(), "config.name") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	var rec recorder
	app := newTestApp(t)
	app.RegisterComponent(rec.component("a"))
	app.RegisterComponent(rec.component("b"))
	app.OnStart(rec.hook("start", nil))
	app.OnReady(rec.hook("ready", nil))
	app.OnStop(rec.hook("stop", nil))

	err := app.RunTask(context.Background(), func(context.Context) error {
		rec.hook("task", nil)(context.Background())
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := "start:a,start:b,hook:start,hook:ready,hook:task,hook:stop,stop:b,stop:a"
	if rec.String() != want {
		t.Errorf("order\n got %s\nwant %s", rec.String(), want)
	}
}

func TestRunTask_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(*App[*testConfig], *recorder)
		task    error
		wantErr string
		wantLog string
	}{
		{
			name: "task error wins over stop error",
			setup: func(a *App[*testConfig], r *recorder) {
				c := r.component("a")
				c.stopErr = errors.New("stop failed")
				a.RegisterComponent(c)
			},
			task:    boom,
			wantErr: "boom",
			wantLog: "start:a,stop:a",
		},
		{
			name: "stop error reported",
			setup: func(a *App[*testConfig], r *recorder) {
				c := r.component("a")
				c.stopErr = boom
				a.RegisterComponent(c)
			},
			wantErr: "boom",
			wantLog: "start:a,stop:a",
		},
		{
			name: "component start failure",
			setup: func(a *App[*testConfig], r *recorder) {
				a.RegisterComponent(r.component("a"))
				c := r.component("b")
				c.startErr = boom
				a.RegisterComponent(c)
			},
			wantErr: "starting components",
			wantLog: "start:a,start:b,stop:a",
		},
		{
			name: "ready hook failure shuts down",
			setup: func(a *App[*testConfig], r *recorder) {
				a.RegisterComponent(r.component("a"))
				a.OnReady(r.hook("ready", boom))
			},
			wantErr: "onReady",
			wantLog: "start:a,hook:ready,stop:a",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rec recorder
			app := newTestApp(t)
			tc.setup(app, &rec)

			err := app.RunTask(context.Background(), func(context.Context) error { return tc.task })
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if rec.String() != tc.wantLog {
				t.Errorf("log\n got %s\nwant %s", rec.String(), tc.wantLog)
			}
		})
	}
}

func TestReadyCheck(t *testing.T) {
	var rec recorder
	app := newTestApp(t)
	degraded := rec.component("realtime")
	degraded.status = component.StatusDegraded
	app.RegisterComponent(degraded)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("degraded should pass, got %v", err)
	}

	down := rec.component("server")
	down.status = component.StatusUnhealthy
	app.RegisterComponent(down)
	if err := app.ReadyCheck(context.Background()); err == nil || !strings.Contains(err.Error(), "server") {
		t.Errorf("expected unhealthy server reported, got %v", err)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	var rec recorder
	app := newTestApp(t)
	app.RegisterComponent(rec.component("a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(rec.String(), "start:a") {
		if time.Now().After(deadline) {
			t.Fatal("component never started")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if rec.String() != "start:a,stop:a" {
		t.Errorf("unexpected log %s", rec.String())
	}
}
