package sse

import (
	"net/http"
	"time"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/logger"
)

// ServeSSE streams channel name to w until the request ends, the client
// falls behind or the hub closes.
//
// Events after the request's Last-Event-ID header (or lastEventId query
// parameter) are replayed first. A heartbeat frame is written every
// HeartbeatInterval.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, name string) {
	log := h.log.WithChannel(name)

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	if !h.streams.TryAcquire() {
		log.Warn("stream limit reached", logger.Fields("max_streams", h.streams.Max()))
		w.Header().Set("Retry-After", "5")
		http.Error(w, errors.StreamLimit(h.streams.Max()).Error(), http.StatusServiceUnavailable)
		return
	}
	defer h.streams.Release()

	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("lastEventId")
	}

	// The ticker exists before the client is visible, so anything that
	// observes the registration also observes the heartbeat schedule.
	ticker := h.clock.Ticker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	client, replay, err := h.Register(channel.Name(name), lastEventID)
	if err != nil {
		http.Error(w, err.Error(), errors.StatusOf(err))
		return
	}
	defer h.Unregister(client)

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.ErrorFields("set_write_deadline", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for _, ev := range replay {
		if err := WriteEvent(w, ev); err != nil {
			return
		}
	}
	flusher.Flush()

	log.Debug("stream opened", logger.Fields(
		logger.FieldSubscriber, client.ID(),
		"replayed", len(replay),
		"remote_addr", r.RemoteAddr,
	))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("stream closed by client", logger.Fields(logger.FieldSubscriber, client.ID()))
			return

		case <-client.Done():
			// Drain what was queued before the drop.
			for {
				select {
				case ev := <-client.Events():
					if WriteEvent(w, ev) != nil {
						return
					}
				default:
					flusher.Flush()
					return
				}
			}

		case ev := <-client.Events():
			if err := WriteEvent(w, ev); err != nil {
				log.Debug("write failed", logger.ErrorFields("write_event", err))
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if err := WriteHeartbeat(w); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
