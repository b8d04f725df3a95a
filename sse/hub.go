package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/resilience"
)

// Metric names.
const (
	MetricPublished   = "pulse.feed.published"
	MetricClients     = "pulse.feed.clients"
	MetricSlowClients = "pulse.feed.slow_clients"
)

// Client is one connected stream.
type Client struct {
	id      string
	channel channel.Name
	events  chan channel.Event
	done    chan struct{}
	once    sync.Once
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Channel returns the channel the client streams.
func (c *Client) Channel() channel.Name { return c.channel }

// Events yields events published after the client registered.
func (c *Client) Events() <-chan channel.Event { return c.events }

// Done is closed when the hub drops the client.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

type feed struct {
	history []channel.Event
	clients map[string]*Client
}

// Option configures a Hub.
type Option func(*Hub)

// WithClock sets the clock used for event timestamps and heartbeat tickers.
func WithClock(c clock.Clock) Option {
	return func(h *Hub) { h.clock = c }
}

// WithLogger sets the base logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithMeter sets the meter for hub instruments.
func WithMeter(m metric.Meter) Option {
	return func(h *Hub) { h.meter = m }
}

// Hub fans published events out to SSE clients, per channel.
type Hub struct {
	cfg   Config
	clock clock.Clock
	log   *logger.Logger
	meter metric.Meter

	published   metric.Int64Counter
	clients     metric.Int64UpDownCounter
	slowClients metric.Int64Counter

	streams *resilience.Bulkhead

	mu     sync.Mutex
	feeds  map[channel.Name]*feed
	closed bool
	done   chan struct{}
}

// NewHub creates a Hub. Zero-valued config fields take their defaults.
func NewHub(cfg Config, opts ...Option) (*Hub, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Hub{
		cfg:   cfg,
		clock: clock.New(),
		log:   logger.GetGlobalLogger(),
		meter: observability.Meter("github.com/kbukum/pulse/sse"),
		feeds: make(map[channel.Name]*feed),
		done:  make(chan struct{}),

		streams: resilience.NewBulkhead("sse-streams", cfg.MaxStreams),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("sse-hub")

	var err error
	if h.published, err = h.meter.Int64Counter(MetricPublished,
		metric.WithDescription("Events published to the feed")); err != nil {
		return nil, errors.Internal(err)
	}
	if h.clients, err = h.meter.Int64UpDownCounter(MetricClients,
		metric.WithDescription("Connected stream clients")); err != nil {
		return nil, errors.Internal(err)
	}
	if h.slowClients, err = h.meter.Int64Counter(MetricSlowClients,
		metric.WithDescription("Clients disconnected for falling behind")); err != nil {
		return nil, errors.Internal(err)
	}
	return h, nil
}

// Config returns the effective configuration.
func (h *Hub) Config() Config { return h.cfg }

// Publish stamps an event with a fresh id and the current time, retains it
// in the channel history and queues it for every connected client.
//
// The channel name must be valid and et must be declared for its domain;
// payload is marshaled to JSON unless it already is json.RawMessage.
func (h *Hub) Publish(name channel.Name, et channel.EventType, payload any) (channel.Event, error) {
	if err := channel.Validate(string(name)); err != nil {
		return channel.Event{}, err
	}
	if !et.BelongsTo(name.Type()) {
		return channel.Event{}, errors.MalformedEvent(
			"event type "+string(et)+" is not declared for "+string(name.Type()), nil)
	}

	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return channel.Event{}, errors.MalformedEvent("payload is not JSON-encodable", err)
		}
		raw = data
	}

	ev := channel.Event{
		ID:        newEventID(),
		Type:      et,
		Channel:   name,
		Timestamp: h.clock.Now().UTC(),
		Payload:   raw,
	}
	if err := h.deliver(ev); err != nil {
		return channel.Event{}, err
	}
	return ev, nil
}

func (h *Hub) deliver(ev channel.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New(errors.ErrCodeRegistryClosed, "feed hub is closed", http.StatusServiceUnavailable)
	}

	f := h.feedLocked(ev.Channel)
	if h.cfg.History > 0 {
		f.history = append(f.history, ev)
		if over := len(f.history) - h.cfg.History; over > 0 {
			f.history = append(f.history[:0:0], f.history[over:]...)
		}
	}

	for id, c := range f.clients {
		select {
		case c.events <- ev:
		default:
			delete(f.clients, id)
			c.close()
			h.clients.Add(context.Background(), -1)
			h.slowClients.Add(context.Background(), 1)
			h.log.Warn("client too slow, disconnecting", logger.Fields(
				logger.FieldChannel, string(ev.Channel),
				logger.FieldSubscriber, id,
			))
		}
	}

	h.published.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("channel.type", string(ev.Channel.Type())),
	))
	h.log.Debug("event published", logger.Fields(
		logger.FieldChannel, string(ev.Channel),
		logger.FieldEventID, ev.ID,
		logger.FieldEventType, string(ev.Type),
		"clients", len(f.clients),
	))
	h.pruneLocked(ev.Channel, f)
	return nil
}

// Register attaches a client to name. Events retained after lastEventID are
// returned for replay; they precede anything sent on the client's Events
// channel. An empty or unknown lastEventID replays nothing.
func (h *Hub) Register(name channel.Name, lastEventID string) (*Client, []channel.Event, error) {
	if err := channel.Validate(string(name)); err != nil {
		return nil, nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, errors.New(errors.ErrCodeRegistryClosed, "feed hub is closed", http.StatusServiceUnavailable)
	}

	f := h.feedLocked(name)
	var replay []channel.Event
	if lastEventID != "" {
		found := false
		for i, ev := range f.history {
			if ev.ID == lastEventID {
				replay = append([]channel.Event(nil), f.history[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			h.log.Info("resume cursor not in history, replaying nothing", logger.Fields(
				logger.FieldChannel, string(name),
				logger.FieldEventID, lastEventID,
			))
		}
	}

	c := &Client{
		id:      uuid.NewString(),
		channel: name,
		events:  make(chan channel.Event, h.cfg.ClientBuffer),
		done:    make(chan struct{}),
	}
	f.clients[c.id] = c
	h.clients.Add(context.Background(), 1)
	h.log.Debug("client registered", logger.Fields(
		logger.FieldChannel, string(name),
		logger.FieldSubscriber, c.id,
		"replay", len(replay),
	))
	return c, replay, nil
}

// Unregister detaches c. Calling it for a dropped client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.close()
	f, ok := h.feeds[c.channel]
	if !ok {
		return
	}
	if _, ok := f.clients[c.id]; !ok {
		return
	}
	delete(f.clients, c.id)
	h.clients.Add(context.Background(), -1)
	h.log.Debug("client unregistered", logger.Fields(
		logger.FieldChannel, string(c.channel),
		logger.FieldSubscriber, c.id,
	))
	h.pruneLocked(c.channel, f)
}

// ClientCount returns the number of clients streaming name.
func (h *Hub) ClientCount(name channel.Name) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.feeds[name]; ok {
		return len(f.clients)
	}
	return 0
}

// TotalClients returns the number of connected clients across channels.
func (h *Hub) TotalClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, f := range h.feeds {
		n += len(f.clients)
	}
	return n
}

// OpenStreams returns the number of ServeSSE calls currently streaming.
func (h *Hub) OpenStreams() int { return h.streams.InUse() }

// History returns a copy of the events retained for name, oldest first.
func (h *Hub) History(name channel.Name) []channel.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.feeds[name]; ok {
		return append([]channel.Event(nil), f.history...)
	}
	return nil
}

// Channels returns the channels that have history or clients, sorted.
func (h *Hub) Channels() []channel.Name {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]channel.Name, 0, len(h.feeds))
	for name := range h.feeds {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close drops every client and rejects further publishes. It is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	n := 0
	for _, f := range h.feeds {
		for id, c := range f.clients {
			c.close()
			delete(f.clients, id)
			n++
		}
	}
	h.clients.Add(context.Background(), int64(-n))
	close(h.done)
	h.log.Info("feed hub closed", logger.Fields("clients", n))
}

// Done is closed when the hub is closed.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) feedLocked(name channel.Name) *feed {
	f, ok := h.feeds[name]
	if !ok {
		f = &feed{clients: make(map[string]*Client)}
		h.feeds[name] = f
	}
	return f
}

// pruneLocked forgets a feed with neither clients nor history, so streams
// on arbitrary names do not accumulate.
func (h *Hub) pruneLocked(name channel.Name, f *feed) {
	if len(f.clients) == 0 && len(f.history) == 0 {
		delete(h.feeds, name)
	}
}

// newEventID returns a time-ordered UUID, falling back to a random one.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
