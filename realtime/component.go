package realtime

import (
	"context"
	"fmt"

	"github.com/kbukum/pulse/component"
)

// Component adapts a Registry to the component lifecycle.
type Component struct {
	reg *Registry
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps reg.
func NewComponent(reg *Registry) *Component {
	return &Component{reg: reg}
}

// Registry returns the wrapped registry.
func (c *Component) Registry() *Registry { return c.reg }

func (c *Component) Name() string { return "realtime" }

// Start is a no-op; channels connect as they are subscribed.
func (c *Component) Start(ctx context.Context) error { return nil }

// Stop closes the registry and waits for queued callbacks to finish.
func (c *Component) Stop(ctx context.Context) error {
	if err := c.reg.Close(); err != nil {
		return err
	}
	select {
	case <-c.reg.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for subscriber callbacks: %w", ctx.Err())
	}
}

// Health maps the global status: connected is healthy, stale and
// connecting are degraded, disconnected is unhealthy. A registry with no
// channels is healthy.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	channels := c.reg.Channels()
	if len(channels) == 0 {
		h.Message = "no active channels"
		return h
	}

	h.Details = make(map[string]string, len(channels))
	for _, ch := range channels {
		h.Details[string(ch.Channel)] = string(ch.Status)
	}
	switch c.reg.GlobalStatus() {
	case StatusConnected:
	case StatusStale, StatusConnecting:
		h.Status = component.StatusDegraded
	default:
		h.Status = component.StatusUnhealthy
	}
	h.Message = fmt.Sprintf("%d channels, global %s", len(channels), c.reg.GlobalStatus())
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	cfg := c.reg.Config()
	return component.Description{
		Type:    "realtime",
		Details: fmt.Sprintf("base=%s heartbeat=%s", cfg.BaseURL, cfg.HeartbeatTimeout),
	}
}
