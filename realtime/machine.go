package realtime

import (
	"slices"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/logger"
)

// openOp is a transport open decided under the lock and performed after it
// is released.
type openOp struct {
	st   *channelState
	conn *connection
	req  OpenRequest
}

// connectLocked starts a new connection attempt for st.
func (r *Registry) connectLocked(st *channelState) *openOp {
	conn := &connection{}
	st.conn = conn
	r.setStatusLocked(st, StatusConnecting)
	return &openOp{
		st:   st,
		conn: conn,
		req: OpenRequest{
			Channel:     st.name,
			URL:         ChannelURL(r.cfg.BaseURL, st.name),
			LastEventID: st.lastEventID,
			Attempt:     st.attempts,
		},
	}
}

func (r *Registry) open(op *openOp) {
	if op == nil {
		return
	}
	st, conn := op.st, op.conn
	r.log.Debug("opening stream", logger.Fields(
		logger.FieldChannel, string(st.name),
		logger.FieldURL, op.req.URL,
		logger.FieldAttempt, op.req.Attempt,
		logger.FieldEventID, op.req.LastEventID,
	))

	stream := r.transport.Open(op.req, Handlers{
		OnOpen:    func() { r.handleOpen(st, conn) },
		OnMessage: func(f Frame) { r.handleFrame(st, conn, f) },
		OnError:   func(err error) { r.handleError(st, conn, err) },
	})

	r.mu.Lock()
	if conn.closed {
		// Torn down or failed while Open was running.
		r.mu.Unlock()
		closeStream(stream)
		return
	}
	conn.stream = stream
	r.mu.Unlock()
}

func (r *Registry) currentLocked(st *channelState, conn *connection) bool {
	return r.channels[st.name] == st && st.conn == conn && !conn.closed
}

func (r *Registry) handleOpen(st *channelState, conn *connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(st, conn) || conn.opened {
		return
	}
	r.markOpenLocked(st, conn)
	r.flushGlobalLocked()
}

func (r *Registry) markOpenLocked(st *channelState, conn *connection) {
	conn.opened = true
	st.attempts = 0
	st.exhausted = false
	st.lastEvent = r.clock.Now()
	r.setStatusLocked(st, StatusConnected)
	r.armHeartbeatLocked(st, conn)
	r.log.Info("stream open", logger.Fields(logger.FieldChannel, string(st.name)))
}

func (r *Registry) handleFrame(st *channelState, conn *connection, f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(st, conn) {
		return
	}
	// Some transports deliver data without a distinct open signal.
	if !conn.opened {
		r.markOpenLocked(st, conn)
	}
	st.lastEvent = r.clock.Now()
	if st.status == StatusStale {
		r.setStatusLocked(st, StatusConnected)
		r.log.Info("channel live again", logger.Fields(logger.FieldChannel, string(st.name)))
	}
	if f.ID != "" {
		st.lastEventID = f.ID
	}
	defer r.flushGlobalLocked()

	// Only unnamed and "message" frames carry channel events.
	if f.Event != "" && f.Event != "message" {
		r.metrics.dropped(st.name)
		r.log.Debug("ignoring named frame", logger.Fields(
			logger.FieldChannel, string(st.name),
			"event", f.Event,
		))
		return
	}

	ev, err := channel.DecodeOn(st.name, []byte(f.Data))
	if err != nil {
		r.metrics.dropped(st.name)
		r.log.Warn("dropping malformed frame", logger.MergeWithError(logger.Fields(
			logger.FieldChannel, string(st.name),
			logger.FieldEventID, f.ID,
		), err))
		return
	}
	if ev.IsHeartbeat() {
		r.metrics.heartbeat(st.name)
		return
	}
	if f.ID == "" {
		st.lastEventID = ev.ID
	}

	handlers := sortedValues(st.subscribers)
	name := st.name
	r.dispatch.enqueue(func() {
		for _, h := range handlers {
			r.invoke(name, ev, h)
		}
		r.metrics.delivered(name, len(handlers))
	})
}

func (r *Registry) invoke(name channel.Name, ev channel.Event, h Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.panicked(name)
			r.log.Error("subscriber handler panicked", logger.MergeWithError(logger.Fields(
				logger.FieldChannel, string(name),
				logger.FieldEventID, ev.ID,
				logger.FieldEventType, string(ev.Type),
			), errors.HandlerPanic(string(name), rec)))
		}
	}()
	h(ev)
}

func (r *Registry) handleError(st *channelState, conn *connection, err error) {
	r.mu.Lock()
	if !r.currentLocked(st, conn) {
		r.mu.Unlock()
		return
	}
	stream := r.dropConnLocked(st)
	r.setStatusLocked(st, StatusDisconnected)
	r.log.Warn("stream failed", logger.MergeWithError(
		logger.Fields(logger.FieldChannel, string(st.name), logger.FieldAttempt, st.attempts),
		errors.TransportFailed(string(st.name), err),
	))
	if len(st.subscribers) > 0 {
		r.scheduleReconnectLocked(st)
	}
	r.flushGlobalLocked()
	r.mu.Unlock()

	closeStream(stream)
}

// dropConnLocked detaches the current connection, if any, and stops the
// heartbeat monitor. The returned stream must be closed after unlocking.
func (r *Registry) dropConnLocked(st *channelState) Stream {
	r.stopHeartbeatLocked(st)
	conn := st.conn
	if conn == nil {
		return nil
	}
	conn.closed = true
	st.conn = nil
	return conn.stream
}

func (r *Registry) scheduleReconnectLocked(st *channelState) {
	if limit := r.cfg.MaxReconnectAttempts; limit > 0 && st.attempts >= limit {
		st.exhausted = true
		r.log.Error("giving up on channel", logger.MergeWithError(
			logger.Fields(logger.FieldChannel, string(st.name), logger.FieldAttempt, st.attempts),
			errors.ReconnectExhausted(string(st.name), st.attempts),
		))
		return
	}

	delay := r.backoff.Delay(st.attempts)
	st.attempts++
	r.stopReconnectLocked(st)
	gen := st.reconnectGen
	st.reconnectTimer = r.clock.AfterFunc(delay, func() { r.fireReconnect(st, gen) })
	r.metrics.reconnect(st.name)
	r.log.Info("reconnect scheduled", logger.MergeWithDelay(logger.Fields(
		logger.FieldChannel, string(st.name),
		logger.FieldAttempt, st.attempts,
	), delay))
}

func (r *Registry) fireReconnect(st *channelState, gen uint64) {
	r.mu.Lock()
	if r.channels[st.name] != st || st.reconnectGen != gen || st.reconnectTimer == nil {
		r.mu.Unlock()
		return
	}
	st.reconnectTimer = nil
	op := r.connectLocked(st)
	r.flushGlobalLocked()
	r.mu.Unlock()

	r.open(op)
}

// stopReconnectLocked cancels a pending reconnect and invalidates any
// callback already in flight.
func (r *Registry) stopReconnectLocked(st *channelState) {
	if st.reconnectTimer != nil {
		st.reconnectTimer.Stop()
		st.reconnectTimer = nil
	}
	st.reconnectGen++
}

func (r *Registry) armHeartbeatLocked(st *channelState, conn *connection) {
	r.stopHeartbeatLocked(st)
	gen := st.heartbeatGen
	st.heartbeatTimer = r.clock.AfterFunc(r.cfg.HeartbeatCheckInterval, func() {
		r.checkHeartbeat(st, conn, gen)
	})
}

func (r *Registry) stopHeartbeatLocked(st *channelState) {
	if st.heartbeatTimer != nil {
		st.heartbeatTimer.Stop()
		st.heartbeatTimer = nil
	}
	st.heartbeatGen++
}

func (r *Registry) checkHeartbeat(st *channelState, conn *connection, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(st, conn) || st.heartbeatGen != gen {
		return
	}
	st.heartbeatTimer = nil

	silence := r.clock.Now().Sub(st.lastEvent)
	if st.status == StatusConnected && silence > r.cfg.HeartbeatTimeout {
		r.setStatusLocked(st, StatusStale)
		r.log.Warn("channel stale", logger.Fields(
			logger.FieldChannel, string(st.name),
			logger.FieldDuration, silence.Milliseconds(),
		))
	}
	r.armHeartbeatLocked(st, conn)
	r.flushGlobalLocked()
}

// setStatusLocked records a channel transition and queues its listeners.
// The global status is recomputed by flushGlobalLocked.
func (r *Registry) setStatusLocked(st *channelState, to Status) {
	from := st.status
	if from == to {
		return
	}
	st.status = to
	r.statusDirty = true
	r.metrics.transition(st.name, from, to)
	r.log.Debug("channel status changed", logger.Fields(
		logger.FieldChannel, string(st.name),
		logger.FieldStatus, string(to),
		logger.FieldPrevStatus, string(from),
	))

	if len(st.listeners) == 0 {
		return
	}
	listeners := sortedValues(st.listeners)
	r.dispatch.enqueue(func() {
		for _, l := range listeners {
			r.notify(l, to)
		}
	})
}

func (r *Registry) flushGlobalLocked() {
	if !r.statusDirty {
		return
	}
	r.statusDirty = false

	statuses := make([]Status, 0, len(r.channels))
	for _, st := range r.channels {
		statuses = append(statuses, st.status)
	}
	g := Worst(statuses...)
	if g == r.global {
		return
	}
	prev := r.global
	r.global = g
	r.log.Debug("global status changed", logger.Fields(
		logger.FieldStatus, string(g),
		logger.FieldPrevStatus, string(prev),
	))

	if len(r.globalListeners) == 0 {
		return
	}
	listeners := sortedValues(r.globalListeners)
	r.dispatch.enqueue(func() {
		for _, l := range listeners {
			r.notify(l, g)
		}
	})
}

func (r *Registry) notify(l StatusListener, s Status) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("status listener panicked", logger.Fields(
				logger.FieldStatus, string(s),
				"recovered", rec,
			))
		}
	}()
	l(s)
}

// sortedValues returns m's values ordered by key, i.e. registration order.
func sortedValues[V any](m map[uint64]V) []V {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
