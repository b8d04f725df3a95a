package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/config"
	"github.com/kbukum/pulse/httpclient"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/realtime"
	"github.com/kbukum/pulse/server"
)

// WatchConfig configures pulse-watch.
type WatchConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Realtime  realtime.Config      `yaml:"realtime" mapstructure:"realtime"`
	Client    httpclient.Config    `yaml:"client" mapstructure:"client"`
	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`

	// Channels are subscribed at startup.
	Channels []string `yaml:"channels" mapstructure:"channels"`
	// Listen overrides server.host and server.port, e.g. ":9090".
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// ApplyDefaults fills every section.
func (c *WatchConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "pulse-watch"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Realtime.ApplyDefaults()
	c.Client.ApplyDefaults()

	if host, port, err := splitListen(c.Listen); err == nil {
		c.Server.Host, c.Server.Port = host, port
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9090
	}
	c.Server.ApplyDefaults()

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section and the channel list.
func (c *WatchConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Realtime.Validate(); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if _, _, err := splitListen(c.Listen); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	for _, name := range c.Channels {
		if err := channel.Validate(name); err != nil {
			return err
		}
	}
	return nil
}

// splitListen parses "host:port". An empty value is not an error.
func splitListen(addr string) (string, int, error) {
	if addr == "" {
		return "", 0, nil
	}
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return host, port, nil
}
