package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/component"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/sse"
)

// GeneratorConfig configures the synthetic run generator.
type GeneratorConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Workspace string        `yaml:"workspace" mapstructure:"workspace"`
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
}

func (c *GeneratorConfig) ApplyDefaults() {
	if c.Workspace == "" {
		c.Workspace = "ws_demo"
	}
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
}

type runPhase int

const (
	phaseCreated runPhase = iota
	phaseRunning
	phaseCompleted
)

// generator walks fake runs through created, running and completed, one
// phase per tick. Each run also gets a single step on its run channel.
type generator struct {
	cfg   GeneratorConfig
	pub   sse.Publisher
	clock clock.Clock
	log   *logger.Logger

	mu      sync.Mutex
	seq     int
	phase   runPhase
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ component.Component = (*generator)(nil)

func newGenerator(cfg GeneratorConfig, pub sse.Publisher, clk clock.Clock, log *logger.Logger) *generator {
	cfg.ApplyDefaults()
	return &generator{cfg: cfg, pub: pub, clock: clk, log: log.WithComponent("generator")}
}

func (g *generator) Name() string { return "generator" }

func (g *generator) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	g.mu.Lock()
	g.cancel = cancel
	g.done = make(chan struct{})
	done := g.done
	g.mu.Unlock()

	ticker := g.clock.Ticker(g.cfg.Interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := g.step(); err != nil {
					g.log.Warn("publish failed", logger.ErrorFields("generate", err))
				}
			}
		}
	}()
	g.log.Info("generating runs", logger.Fields(
		logger.FieldChannel, channel.Runs(g.cfg.Workspace).String(),
		"interval", g.cfg.Interval.String(),
	))
	return nil
}

func (g *generator) Stop(ctx context.Context) error {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *generator) Health(_ context.Context) component.Health {
	return component.Health{Name: g.Name(), Status: component.StatusHealthy}
}

// step publishes the next phase of the current run.
func (g *generator) step() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	runs := channel.Runs(g.cfg.Workspace)

	switch g.phase {
	case phaseCreated:
		g.seq++
		g.started = now
		runID := g.runID()
		if _, err := g.pub.Publish(runs, channel.EventRunCreated, channel.RunCreatedPayload{
			RunID:       runID,
			WorkflowID:  "wf_demo",
			WorkspaceID: g.cfg.Workspace,
			TriggeredBy: "generator",
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		g.phase = phaseRunning

	case phaseRunning:
		runID := g.runID()
		if _, err := g.pub.Publish(runs, channel.EventRunStatusChanged, channel.RunStatusPayload{
			RunID:          runID,
			Status:         "running",
			PreviousStatus: "queued",
			UpdatedAt:      now,
		}); err != nil {
			return err
		}
		if _, err := g.pub.Publish(channel.Run(runID), channel.EventStepStarted, channel.StepPayload{
			RunID:     runID,
			StepID:    "step_1",
			Name:      "build",
			Status:    "running",
			StartedAt: now,
		}); err != nil {
			return err
		}
		g.phase = phaseCompleted

	case phaseCompleted:
		runID := g.runID()
		if _, err := g.pub.Publish(channel.Run(runID), channel.EventStepCompleted, channel.StepPayload{
			RunID:       runID,
			StepID:      "step_1",
			Name:        "build",
			Status:      "succeeded",
			StartedAt:   g.started,
			CompletedAt: &now,
		}); err != nil {
			return err
		}
		if _, err := g.pub.Publish(runs, channel.EventRunCompleted, channel.RunCompletedPayload{
			RunID:       runID,
			Status:      "succeeded",
			DurationMs:  now.Sub(g.started).Milliseconds(),
			CompletedAt: now,
		}); err != nil {
			return err
		}
		g.phase = phaseCreated
	}
	return nil
}

func (g *generator) runID() string {
	return fmt.Sprintf("run_%04d", g.seq)
}
