// Command pulse-feed serves realtime channel event streams over SSE.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/spf13/pflag"

	"github.com/kbukum/pulse/bootstrap"
	"github.com/kbukum/pulse/component"
	"github.com/kbukum/pulse/config"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/resilience"
	"github.com/kbukum/pulse/server"
	"github.com/kbukum/pulse/sse"
	"github.com/kbukum/pulse/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pulse-feed:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("pulse-feed", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to config file")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Int("server.port", 0, "listen port")
	fs.Bool("generator.enabled", false, "publish synthetic runs events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println("pulse-feed", version.Get())
		return nil
	}

	opts := []config.LoaderOption{config.WithEnvPrefix("PULSE"), config.WithFlags(fs)}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	cfg := &FeedConfig{}
	if err := config.LoadConfig("pulse-feed", cfg, opts...); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	hub, err := sse.NewHub(cfg.Feed,
		sse.WithLogger(app.Logger),
		sse.WithMeter(observability.Meter("pulse-feed")),
	)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyMiddleware()
	srv.RegisterHealth(app.Name, app.Components.HealthAll)
	handlers := &feedHandlers{
		hub: hub,
		limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "publish",
			Rate:  cfg.Publish.Rate,
			Burst: cfg.Publish.Burst,
		}),
		maxBody: cfg.Publish.MaxBodyBytes,
		log:     app.Logger,
	}
	handlers.routes(srv.GinEngine())

	components := []component.Component{
		observability.NewComponent(cfg.Telemetry, app.Logger),
		sse.NewComponent(hub, "/api/events/:channel"),
	}
	if cfg.Generator.Enabled {
		components = append(components, newGenerator(cfg.Generator, hub, clock.New(), app.Logger))
	}
	components = append(components, server.NewComponent(srv))
	for _, c := range components {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	return app.Run(context.Background())
}
