package realtime

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/pulse/channel"
)

// Metric names.
const (
	MetricStatusTransitions = "pulse.realtime.status_transitions"
	MetricReconnects        = "pulse.realtime.reconnects"
	MetricEventsDelivered   = "pulse.realtime.events_delivered"
	MetricHeartbeats        = "pulse.realtime.heartbeats"
	MetricFramesDropped     = "pulse.realtime.frames_dropped"
	MetricHandlerPanics     = "pulse.realtime.handler_panics"
	MetricActiveChannels    = "pulse.realtime.active_channels"
)

// metrics records registry activity. Attributes carry the channel type,
// never the full channel name, to keep cardinality bounded.
type metrics struct {
	transitions     metric.Int64Counter
	reconnects      metric.Int64Counter
	eventsDelivered metric.Int64Counter
	heartbeats      metric.Int64Counter
	framesDropped   metric.Int64Counter
	handlerPanics   metric.Int64Counter
	activeChannels  metric.Int64UpDownCounter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.transitions, MetricStatusTransitions, "Channel status transitions"},
		{&m.reconnects, MetricReconnects, "Scheduled reconnect attempts"},
		{&m.eventsDelivered, MetricEventsDelivered, "Events delivered to subscriber handlers"},
		{&m.heartbeats, MetricHeartbeats, "Heartbeat frames received"},
		{&m.framesDropped, MetricFramesDropped, "Frames dropped because they could not be decoded"},
		{&m.handlerPanics, MetricHandlerPanics, "Recovered subscriber handler panics"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	m.activeChannels, err = meter.Int64UpDownCounter(MetricActiveChannels,
		metric.WithDescription("Channels with at least one subscriber"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricActiveChannels, err)
	}
	return &m, nil
}

func typeAttr(name channel.Name) attribute.KeyValue {
	return attribute.String("channel.type", string(name.Type()))
}

func (m *metrics) transition(name channel.Name, from, to Status) {
	m.transitions.Add(context.Background(), 1, metric.WithAttributes(
		typeAttr(name),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
}

func (m *metrics) reconnect(name channel.Name) {
	m.reconnects.Add(context.Background(), 1, metric.WithAttributes(typeAttr(name)))
}

func (m *metrics) delivered(name channel.Name, n int) {
	m.eventsDelivered.Add(context.Background(), int64(n), metric.WithAttributes(typeAttr(name)))
}

func (m *metrics) heartbeat(name channel.Name) {
	m.heartbeats.Add(context.Background(), 1, metric.WithAttributes(typeAttr(name)))
}

func (m *metrics) dropped(name channel.Name) {
	m.framesDropped.Add(context.Background(), 1, metric.WithAttributes(typeAttr(name)))
}

func (m *metrics) panicked(name channel.Name) {
	m.handlerPanics.Add(context.Background(), 1, metric.WithAttributes(typeAttr(name)))
}

func (m *metrics) channelAdded(name channel.Name) {
	m.activeChannels.Add(context.Background(), 1, metric.WithAttributes(typeAttr(name)))
}

func (m *metrics) channelRemoved(name channel.Name) {
	m.activeChannels.Add(context.Background(), -1, metric.WithAttributes(typeAttr(name)))
}
