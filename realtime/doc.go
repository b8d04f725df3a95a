// Package realtime multiplexes channel subscriptions over streaming
// transports.
//
// A Registry keeps at most one live transport per channel name no matter how
// many subscribers share it. Each channel runs a small state machine:
//
//	disconnected -> connecting -> connected <-> stale
//	      ^              |            |
//	      +--- backoff --+------------+  (transport error)
//
// Transport errors close the stream and schedule a reconnect after
// min(initial*2^attempts, max). A heartbeat monitor marks a quiet channel
// stale without closing it; the next frame of any kind restores connected.
//
// Handlers and status listeners run on a single dispatcher goroutine in the
// order the registry observed the underlying events, never under the
// registry lock, so they may call back into the Registry.
//
//	reg, err := realtime.New(cfg, ssetransport.New(client))
//	unsubscribe, err := reg.Subscribe(channel.Runs("ws_1"), func(ev channel.Event) {
//	    log.Info("event", logger.Fields("type", ev.Type))
//	})
//	defer unsubscribe()
package realtime
