// Package sse serves pulse channels as Server-Sent Events streams.
//
// A Hub keeps a bounded history per channel and fans published events out
// to connected clients. Every frame is an unnamed-or-"message" SSE event
// whose data field is a JSON channel.Event; heartbeats carry no id so they
// never move a client's Last-Event-ID cursor.
//
//	hub, _ := sse.NewHub(sse.Config{})
//	router.GET("/api/events/:channel", func(c *gin.Context) {
//	    hub.ServeSSE(c.Writer, c.Request, c.Param("channel"))
//	})
//	hub.Publish(channel.Runs("ws_1"), channel.EventRunCreated, payload)
//
// A reconnecting client sends Last-Event-ID and is replayed every retained
// event published after it. Clients that fall ClientBuffer events behind
// are disconnected so they can resume from their cursor.
package sse
