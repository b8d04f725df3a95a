package main

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/resilience"
	"github.com/kbukum/pulse/server"
	"github.com/kbukum/pulse/server/middleware"
	"github.com/kbukum/pulse/sse"
)

type publishRequest struct {
	Type    channel.EventType `json:"type" binding:"required"`
	Payload json.RawMessage   `json:"payload"`
}

type channelSummary struct {
	Channel channel.Name `json:"channel"`
	Clients int          `json:"clients"`
	History int          `json:"history"`
}

type feedHandlers struct {
	hub     *sse.Hub
	limiter *resilience.RateLimiter
	maxBody int64
	log     *logger.Logger
}

// stream serves GET /api/events/:channel.
func (f *feedHandlers) stream(c *gin.Context) {
	f.hub.ServeSSE(c.Writer, c.Request, c.Param("channel"))
}

// publish serves POST /api/publish/:channel.
func (f *feedHandlers) publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			server.RespondWithError(c, errors.PayloadTooLarge(tooLarge.Limit))
			return
		}
		server.RespondWithError(c, errors.MalformedEvent("invalid publish body", err))
		return
	}
	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	ev, err := f.hub.Publish(channel.Name(c.Param("channel")), req.Type, payload)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, ev)
}

// channels serves GET /api/channels.
func (f *feedHandlers) channels(c *gin.Context) {
	names := f.hub.Channels()
	out := make([]channelSummary, 0, len(names))
	for _, n := range names {
		out = append(out, channelSummary{
			Channel: n,
			Clients: f.hub.ClientCount(n),
			History: len(f.hub.History(n)),
		})
	}
	server.RespondOK(c, out)
}

func (f *feedHandlers) routes(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/events/:channel", f.stream)
	api.POST("/publish/:channel",
		middleware.RateLimit(f.limiter, f.log),
		middleware.BodySizeLimit(f.maxBody),
		f.publish,
	)
	api.GET("/channels", f.channels)
}
