// Command pulse-watch subscribes to realtime channels on a pulse feed and
// logs every event it receives.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/pulse/bootstrap"
	"github.com/kbukum/pulse/component"
	"github.com/kbukum/pulse/config"
	"github.com/kbukum/pulse/httpclient"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/realtime"
	"github.com/kbukum/pulse/realtime/ssetransport"
	"github.com/kbukum/pulse/server"
	"github.com/kbukum/pulse/server/endpoint"
	"github.com/kbukum/pulse/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pulse-watch:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Println("pulse-watch", version.Get())
		return nil
	}
	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	client, err := httpclient.New(cfg.Client)
	if err != nil {
		return err
	}
	reg, err := realtime.New(cfg.Realtime, ssetransport.New(client),
		realtime.WithLogger(app.Logger),
		realtime.WithMeter(observability.Meter("pulse-watch")),
	)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyMiddleware()
	srv.RegisterHealth(app.Name, app.Components.HealthAll)
	w := newWatcher(reg, app.Logger)
	srv.GinEngine().GET("/healthz", endpoint.Health(app.Name, app.Components.HealthAll))
	w.routes(srv.GinEngine())

	for _, c := range []component.Component{
		observability.NewComponent(cfg.Telemetry, app.Logger),
		realtime.NewComponent(reg),
		server.NewComponent(srv),
	} {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	var stopGlobal func()
	app.OnReady(func(context.Context) error {
		stopGlobal = reg.OnGlobalStatusChange(w.onGlobalStatus)
		return w.subscribe(cfg.Channels)
	})
	app.OnStop(func(context.Context) error {
		w.unsubscribeAll()
		if stopGlobal != nil {
			stopGlobal()
		}
		return nil
	})

	return app.Run(context.Background())
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("pulse-watch", pflag.ContinueOnError)
	fs.String("config", "", "path to config file")
	fs.Bool("version", false, "print version and exit")
	fs.StringSlice("channel", nil, "channel to subscribe to (repeatable)")
	fs.String("listen", "", "status server address, e.g. :9090")
	fs.String("realtime.base_url", "", "base URL of the event feed")
	return fs
}

// loadConfig layers config.yml, PULSE_* environment variables and the
// parsed flags in fs.
func loadConfig(fs *pflag.FlagSet) (*WatchConfig, error) {
	opts := []config.LoaderOption{
		config.WithEnvPrefix("PULSE"),
		config.WithFlags(fs),
	}
	if path, _ := fs.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg := &WatchConfig{}
	if err := config.LoadConfig("pulse-watch", cfg, opts...); err != nil {
		return nil, err
	}
	if fs.Changed("channel") {
		cfg.Channels, _ = fs.GetStringSlice("channel")
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	return cfg, nil
}
