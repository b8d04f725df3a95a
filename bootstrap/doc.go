// Package bootstrap runs a pulse binary: it starts registered components in
// order, runs lifecycle hooks, waits for SIGINT or SIGTERM and shuts
// everything down in reverse within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(realtime.NewComponent(reg))
//	app.RegisterComponent(server.NewComponent(srv))
//	app.OnReady(subscribeChannels)
//	return app.Run(ctx)
package bootstrap
