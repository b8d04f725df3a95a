package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/logger"
)

type published struct {
	name channel.Name
	typ  channel.EventType
}

type recordingPublisher struct {
	mu       sync.Mutex
	got      []published
	fail     error
	attempts int
}

func (p *recordingPublisher) Publish(name channel.Name, et channel.EventType, payload any) (channel.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.fail != nil {
		return channel.Event{}, p.fail
	}
	p.got = append(p.got, published{name, et})
	return channel.Event{ID: "e", Type: et, Channel: name}, nil
}

func (p *recordingPublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.got...)
}

func TestGenerator_CyclesRunPhases(t *testing.T) {
	clk := clock.NewMock()
	pub := &recordingPublisher{}
	g := newGenerator(GeneratorConfig{Workspace: "ws_1", Interval: time.Second}, pub, clk, logger.Nop())

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer g.Stop(context.Background())

	runs := channel.Runs("ws_1")
	run1 := channel.Run("run_0001")
	run2 := channel.Run("run_0002")
	want := []published{
		{runs, channel.EventRunCreated},
		{runs, channel.EventRunStatusChanged},
		{run1, channel.EventStepStarted},
		{run1, channel.EventStepCompleted},
		{runs, channel.EventRunCompleted},
		{runs, channel.EventRunCreated},
		{runs, channel.EventRunStatusChanged},
		{run2, channel.EventStepStarted},
	}

	counts := []int{1, 3, 5, 6, 8}
	for _, n := range counts {
		clk.Add(time.Second)
		waitPublished(t, pub, n)
	}

	got := pub.snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("publish %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGenerator_PublishErrorKeepsRunning(t *testing.T) {
	clk := clock.NewMock()
	pub := &recordingPublisher{fail: errors.New("closed")}
	g := newGenerator(GeneratorConfig{Interval: time.Second}, pub, clk, logger.Nop())
	g.Start(context.Background())
	defer g.Stop(context.Background())

	clk.Add(time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for {
		pub.mu.Lock()
		if pub.attempts > 0 {
			pub.fail = nil
			pub.mu.Unlock()
			break
		}
		pub.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatal("generator never published")
		}
		time.Sleep(time.Millisecond)
	}

	// The failed tick did not advance the phase.
	clk.Add(time.Second)
	waitPublished(t, pub, 1)
	if got := pub.snapshot()[0]; got.typ != channel.EventRunCreated || got.name != channel.Runs("ws_demo") {
		t.Errorf("unexpected first publish %+v", got)
	}
}

func TestGenerator_StopWithoutStart(t *testing.T) {
	g := newGenerator(GeneratorConfig{}, &recordingPublisher{}, clock.NewMock(), logger.Nop())
	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if g.cfg.Interval != 2*time.Second || g.cfg.Workspace != "ws_demo" {
		t.Errorf("defaults not applied: %+v", g.cfg)
	}
}

func waitPublished(t *testing.T, p *recordingPublisher, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(p.snapshot()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d publishes, got %d", n, len(p.snapshot()))
		}
		time.Sleep(time.Millisecond)
	}
}
