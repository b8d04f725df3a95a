package main

import (
	"fmt"

	"github.com/kbukum/pulse/config"
	"github.com/kbukum/pulse/observability"
	"github.com/kbukum/pulse/server"
	"github.com/kbukum/pulse/sse"
)

// FeedConfig configures pulse-feed.
type FeedConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Feed      sse.Config           `yaml:"feed" mapstructure:"feed"`
	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Generator GeneratorConfig      `yaml:"generator" mapstructure:"generator"`
	Publish   PublishConfig        `yaml:"publish" mapstructure:"publish"`
}

// PublishConfig limits POST /api/publish across all callers.
type PublishConfig struct {
	Rate         float64 `yaml:"rate" mapstructure:"rate"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

func (c *FeedConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "pulse-feed"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Feed.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Generator.ApplyDefaults()
	if c.Publish.Rate <= 0 {
		c.Publish.Rate = 50
	}
	if c.Publish.Burst <= 0 {
		c.Publish.Burst = 100
	}
	if c.Publish.MaxBodyBytes <= 0 {
		c.Publish.MaxBodyBytes = 64 << 10
	}
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

func (c *FeedConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Feed.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Generator.Interval <= 0 {
		return fmt.Errorf("generator.interval must be positive")
	}
	return nil
}
