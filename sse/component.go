package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/pulse/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps a Hub as a lifecycle-managed component.
type Component struct {
	hub  *Hub
	path string
}

// NewComponent wraps hub, served under path.
func NewComponent(hub *Hub, path string) *Component {
	return &Component{hub: hub, path: path}
}

// Hub returns the wrapped hub.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the component name.
func (c *Component) Name() string { return "sse-hub" }

// Start is a no-op; the hub serves as soon as it exists.
func (c *Component) Start(_ context.Context) error { return nil }

// Stop closes the hub, ending every stream.
func (c *Component) Stop(_ context.Context) error {
	c.hub.Close()
	return nil
}

// Health reports unhealthy once the hub is closed.
func (c *Component) Health(_ context.Context) component.Health {
	select {
	case <-c.hub.Done():
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "closed"}
	default:
	}
	h := component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected", c.hub.TotalClients()),
	}
	if max := c.hub.streams.Max(); max > 0 && c.hub.OpenStreams() >= max {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("stream limit %d reached", max)
	}
	return h
}

// Describe returns a startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "SSE Hub",
		Type:    "sse",
		Details: fmt.Sprintf("path=%s heartbeat=%s history=%d max_streams=%d",
			c.path, c.hub.cfg.HeartbeatInterval, c.hub.cfg.History, c.hub.cfg.MaxStreams),
	}
}
