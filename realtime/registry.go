package realtime

import (
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/resilience"
)

const meterName = "github.com/kbukum/pulse/realtime"

// Handler receives the events of a subscribed channel.
type Handler func(channel.Event)

// Unsubscribe removes a subscription. It is safe to call more than once.
type Unsubscribe func()

// StatusListener receives a channel or global status after it changes.
type StatusListener func(Status)

// Option configures a Registry.
type Option func(*options)

type options struct {
	clock clock.Clock
	log   *logger.Logger
	meter metric.Meter
}

// WithClock sets the clock used for backoff and heartbeat timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMeter sets the meter for registry instruments.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// ChannelInfo is a point-in-time view of one active channel.
type ChannelInfo struct {
	Channel     channel.Name `json:"channel"`
	Status      Status       `json:"status"`
	Subscribers int          `json:"subscribers"`
	Attempts    int          `json:"reconnect_attempts"`
	Exhausted   bool         `json:"reconnect_exhausted"`
	LastEventAt time.Time    `json:"last_event_at,omitempty"`
	LastEventID string       `json:"last_event_id,omitempty"`
}

// connection is one transport attempt. Callbacks carrying a connection that
// is no longer the channel's current one are ignored.
type connection struct {
	stream Stream
	opened bool
	closed bool
}

type channelState struct {
	name        channel.Name
	conn        *connection
	subscribers map[uint64]Handler
	listeners   map[uint64]StatusListener
	status      Status
	attempts    int
	exhausted   bool
	lastEvent   time.Time
	lastEventID string

	reconnectTimer *clock.Timer
	reconnectGen   uint64
	heartbeatTimer *clock.Timer
	heartbeatGen   uint64
}

// Registry owns every channel's connection state and fans events out to
// subscribers. Construct one per process and pass it to consumers.
type Registry struct {
	cfg       Config
	transport Transport
	clock     clock.Clock
	log       *logger.Logger
	metrics   *metrics
	backoff   *resilience.Backoff
	resume    *ttlcache.Cache[channel.Name, string]
	dispatch  *dispatcher

	mu              sync.Mutex
	channels        map[channel.Name]*channelState
	globalListeners map[uint64]StatusListener
	global          Status
	statusDirty     bool
	nextID          uint64
	closed          bool
}

// New creates a Registry. Zero-valued config fields take their defaults.
func New(cfg Config, transport Transport, opts ...Option) (*Registry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, errors.InvalidConfig("transport", "is required")
	}

	o := options{
		clock: clock.New(),
		log:   logger.GetGlobalLogger(),
		meter: observability.Meter(meterName),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := newMetrics(o.meter)
	if err != nil {
		return nil, errors.Internal(err)
	}

	r := &Registry{
		cfg:             cfg,
		transport:       transport,
		clock:           o.clock,
		log:             o.log.WithComponent("realtime"),
		metrics:         m,
		backoff:         resilience.NewBackoff(cfg.InitialReconnectDelay, cfg.MaxReconnectDelay, cfg.ReconnectJitter),
		dispatch:        newDispatcher(),
		channels:        make(map[channel.Name]*channelState),
		globalListeners: make(map[uint64]StatusListener),
		global:          StatusDisconnected,
	}
	if cfg.ResumeWindow > 0 {
		r.resume = ttlcache.New[channel.Name, string](
			ttlcache.WithTTL[channel.Name, string](cfg.ResumeWindow),
			ttlcache.WithDisableTouchOnHit[channel.Name, string](),
		)
		go r.resume.Start()
	}
	return r, nil
}

// Config returns the effective configuration.
func (r *Registry) Config() Config {
	return r.cfg
}

// Subscribe registers h for events on name. The first subscriber of a
// channel opens its transport; later subscribers share it. Invalid names
// fail with INVALID_CHANNEL before any network activity.
//
// Events already queued for delivery when Unsubscribe is called may still
// reach h.
func (r *Registry) Subscribe(name channel.Name, h Handler) (Unsubscribe, error) {
	if err := channel.Validate(string(name)); err != nil {
		return nil, err
	}
	if h == nil {
		h = func(channel.Event) {}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.RegistryClosed()
	}
	st, ok := r.channels[name]
	if !ok {
		st = r.newStateLocked(name)
	}
	r.nextID++
	id := r.nextID
	st.subscribers[id] = h

	var op *openOp
	if len(st.subscribers) == 1 {
		op = r.connectLocked(st)
	}
	r.flushGlobalLocked()
	count := len(st.subscribers)
	r.mu.Unlock()

	r.log.Debug("subscribed", logger.Fields(
		logger.FieldChannel, string(name),
		logger.FieldSubscriber, id,
		"subscribers", count,
	))
	r.open(op)

	var once sync.Once
	return func() {
		once.Do(func() { r.unsubscribe(st, id) })
	}, nil
}

func (r *Registry) unsubscribe(st *channelState, id uint64) {
	r.mu.Lock()
	if r.channels[st.name] != st {
		r.mu.Unlock()
		return
	}
	if _, ok := st.subscribers[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(st.subscribers, id)

	var stream Stream
	released := len(st.subscribers) == 0
	if released {
		stream = r.teardownLocked(st)
	}
	r.flushGlobalLocked()
	r.mu.Unlock()

	closeStream(stream)
	if released {
		r.log.Debug("channel released", logger.Fields(logger.FieldChannel, string(st.name)))
	}
}

// ChannelStatus returns the status of name, or StatusDisconnected when it
// has no subscribers.
func (r *Registry) ChannelStatus(name channel.Name) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.channels[name]; ok {
		return st.status
	}
	return StatusDisconnected
}

// SubscriberCount returns the number of subscribers of name.
func (r *Registry) SubscriberCount(name channel.Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.channels[name]; ok {
		return len(st.subscribers)
	}
	return 0
}

// ActiveChannels returns the channels with at least one subscriber, sorted.
func (r *Registry) ActiveChannels() []channel.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]channel.Name, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Channels returns a snapshot of every active channel, sorted by name.
func (r *Registry) Channels() []ChannelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChannelInfo, 0, len(r.channels))
	for _, st := range r.channels {
		out = append(out, ChannelInfo{
			Channel:     st.name,
			Status:      st.status,
			Subscribers: len(st.subscribers),
			Attempts:    st.attempts,
			Exhausted:   st.exhausted,
			LastEventAt: st.lastEvent,
			LastEventID: st.lastEventID,
		})
	}
	slices.SortFunc(out, func(a, b ChannelInfo) int {
		switch {
		case a.Channel < b.Channel:
			return -1
		case a.Channel > b.Channel:
			return 1
		}
		return 0
	})
	return out
}

// GlobalStatus returns the worst status across active channels, or
// StatusDisconnected when there are none.
func (r *Registry) GlobalStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.global
}

// OnGlobalStatusChange registers fn to run whenever the global status
// changes value. The returned func removes it.
func (r *Registry) OnGlobalStatusChange(fn StatusListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || fn == nil {
		return func() {}
	}
	r.nextID++
	id := r.nextID
	r.globalListeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.globalListeners, id)
	}
}

// OnChannelStatusChange registers fn to run on every status transition of
// name. Listeners are dropped when the channel's last subscriber leaves,
// after being told StatusDisconnected.
func (r *Registry) OnChannelStatusChange(name channel.Name, fn StatusListener) (func(), error) {
	if err := channel.Validate(string(name)); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.RegistryClosed()
	}
	st, ok := r.channels[name]
	if !ok {
		return nil, errors.ChannelNotFound(string(name))
	}
	if fn == nil {
		return func() {}, nil
	}
	r.nextID++
	id := r.nextID
	st.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(st.listeners, id)
	}, nil
}

// Reconnect cancels any pending retry, resets the attempt counter, closes
// the current transport and opens a new one immediately.
func (r *Registry) Reconnect(name channel.Name) error {
	r.mu.Lock()
	st, err := r.lookupLocked(name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	stream := r.dropConnLocked(st)
	r.stopReconnectLocked(st)
	st.attempts = 0
	st.exhausted = false
	op := r.connectLocked(st)
	r.flushGlobalLocked()
	r.mu.Unlock()

	closeStream(stream)
	r.log.Info("manual reconnect", logger.Fields(logger.FieldChannel, string(name)))
	r.open(op)
	return nil
}

// Disconnect closes the transport of name, cancels timers and leaves the
// channel disconnected without scheduling a reconnect. Subscribers stay
// registered; Reconnect revives the channel.
func (r *Registry) Disconnect(name channel.Name) error {
	r.mu.Lock()
	st, err := r.lookupLocked(name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	stream := r.dropConnLocked(st)
	r.stopReconnectLocked(st)
	st.exhausted = false
	r.setStatusLocked(st, StatusDisconnected)
	r.flushGlobalLocked()
	r.mu.Unlock()

	closeStream(stream)
	r.log.Info("manual disconnect", logger.Fields(logger.FieldChannel, string(name)))
	return nil
}

// Reset tears down every channel: transports are closed, timers stopped,
// subscribers and channel listeners dropped. Global listeners are kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	streams := r.resetLocked()
	r.mu.Unlock()

	for _, s := range streams {
		closeStream(s)
	}
}

// Close resets the registry and stops delivery. Later operations fail with
// REGISTRY_CLOSED. Callbacks already queued still run.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	streams := r.resetLocked()
	r.closed = true
	r.globalListeners = make(map[uint64]StatusListener)
	r.mu.Unlock()

	for _, s := range streams {
		closeStream(s)
	}
	r.dispatch.stop()
	if r.resume != nil {
		r.resume.Stop()
	}
	r.log.Info("registry closed")
	return nil
}

// Done is closed once Close has been called and every queued callback has run.
func (r *Registry) Done() <-chan struct{} {
	return r.dispatch.done
}

func (r *Registry) resetLocked() []Stream {
	var streams []Stream
	for _, st := range r.channels {
		if s := r.teardownLocked(st); s != nil {
			streams = append(streams, s)
		}
	}
	if r.resume != nil {
		r.resume.DeleteAll()
	}
	r.flushGlobalLocked()
	return streams
}

func (r *Registry) lookupLocked(name channel.Name) (*channelState, error) {
	if err := channel.Validate(string(name)); err != nil {
		return nil, err
	}
	if r.closed {
		return nil, errors.RegistryClosed()
	}
	st, ok := r.channels[name]
	if !ok {
		return nil, errors.ChannelNotFound(string(name))
	}
	return st, nil
}

func (r *Registry) newStateLocked(name channel.Name) *channelState {
	st := &channelState{
		name:        name,
		subscribers: make(map[uint64]Handler),
		listeners:   make(map[uint64]StatusListener),
		status:      StatusDisconnected,
	}
	if r.resume != nil {
		if item := r.resume.Get(name); item != nil {
			st.lastEventID = item.Value()
			r.resume.Delete(name)
		}
	}
	r.channels[name] = st
	r.statusDirty = true
	r.metrics.channelAdded(name)
	return st
}

// teardownLocked closes and forgets st, returning the stream to close once
// the lock is released.
func (r *Registry) teardownLocked(st *channelState) Stream {
	stream := r.dropConnLocked(st)
	r.stopReconnectLocked(st)
	r.setStatusLocked(st, StatusDisconnected)
	st.listeners = make(map[uint64]StatusListener)
	st.subscribers = make(map[uint64]Handler)
	delete(r.channels, st.name)
	r.statusDirty = true
	r.metrics.channelRemoved(st.name)

	if r.resume != nil && st.lastEventID != "" {
		r.resume.Set(st.name, st.lastEventID, ttlcache.DefaultTTL)
	}
	return stream
}

func closeStream(s Stream) {
	if s != nil {
		s.Close()
	}
}
