package main

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/realtime"
	"github.com/kbukum/pulse/server"
)

// watcher logs every event it receives and reports registry state.
type watcher struct {
	reg      *realtime.Registry
	log      *logger.Logger
	received atomic.Int64
	unsubs   []realtime.Unsubscribe
}

func newWatcher(reg *realtime.Registry, log *logger.Logger) *watcher {
	return &watcher{reg: reg, log: log.WithComponent("watch")}
}

// subscribe attaches the logging handler to every named channel.
func (w *watcher) subscribe(names []string) error {
	for _, n := range names {
		name := channel.Name(n)
		unsub, err := w.reg.Subscribe(name, w.handle)
		if err != nil {
			return err
		}
		w.unsubs = append(w.unsubs, unsub)
		w.log.Info("subscribed", logger.Fields(logger.FieldChannel, n))
	}
	return nil
}

func (w *watcher) unsubscribeAll() {
	for _, u := range w.unsubs {
		u()
	}
	w.unsubs = nil
}

func (w *watcher) handle(ev channel.Event) {
	w.received.Add(1)
	fields := logger.Fields(
		logger.FieldChannel, ev.Channel.String(),
		logger.FieldEventID, ev.ID,
		logger.FieldEventType, string(ev.Type),
	)

	switch {
	case channel.IsRunsEvent(ev) && ev.Type == channel.EventRunStatusChanged:
		p, err := channel.DecodePayload[channel.RunStatusPayload](ev)
		if err != nil {
			w.log.Warn("undecodable payload", logger.MergeWithError(fields, err))
			return
		}
		fields["run_id"] = p.RunID
		fields[logger.FieldStatus] = p.Status
		if p.PreviousStatus != "" {
			fields["previous_status"] = p.PreviousStatus
		}
	case channel.IsRunsEvent(ev) && ev.Type == channel.EventRunCompleted:
		p, err := channel.DecodePayload[channel.RunCompletedPayload](ev)
		if err != nil {
			w.log.Warn("undecodable payload", logger.MergeWithError(fields, err))
			return
		}
		fields["run_id"] = p.RunID
		fields[logger.FieldStatus] = p.Status
		fields[logger.FieldDuration] = p.DurationMs
	case channel.IsApprovalsEvent(ev), channel.IsAuditEvent(ev), channel.IsRunEvent(ev):
		fields["payload_bytes"] = len(ev.Payload)
	}
	w.log.Info("event", fields)
}

func (w *watcher) onGlobalStatus(s realtime.Status) {
	w.log.Info("global status changed", logger.Fields(logger.FieldStatus, s.String()))
}

type statusResponse struct {
	Global   realtime.Status        `json:"global"`
	Received int64                  `json:"received"`
	Channels []realtime.ChannelInfo `json:"channels"`
}

// status serves GET /status.
func (w *watcher) status(c *gin.Context) {
	server.RespondOK(c, statusResponse{
		Global:   w.reg.GlobalStatus(),
		Received: w.received.Load(),
		Channels: w.reg.Channels(),
	})
}

// reconnect serves POST /channels/:channel/reconnect.
func (w *watcher) reconnect(c *gin.Context) {
	if err := w.reg.Reconnect(channel.Name(c.Param("channel"))); err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (w *watcher) routes(r gin.IRouter) {
	r.GET("/status", w.status)
	r.POST("/channels/:channel/reconnect", w.reconnect)
}
