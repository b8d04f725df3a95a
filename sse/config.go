package sse

import (
	"time"

	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/validation"
)

// Config configures a Hub.
type Config struct {
	// HeartbeatInterval is the period of heartbeat frames on each stream.
	// Defaults to 30s.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval" validate:"gt=0"`

	// History is the number of events retained per channel for replay.
	// Defaults to 100.
	History int `yaml:"history" mapstructure:"history" validate:"gte=0"`

	// ClientBuffer is how many events may queue for one client before it is
	// disconnected. Defaults to 256.
	ClientBuffer int `yaml:"client_buffer" mapstructure:"client_buffer" validate:"gt=0"`

	// MaxStreams caps concurrently open streams across all channels.
	// Zero means unlimited.
	MaxStreams int `yaml:"max_streams" mapstructure:"max_streams" validate:"gte=0"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.History == 0 {
		c.History = 100
	}
	if c.ClientBuffer <= 0 {
		c.ClientBuffer = 256
	}
}

// Validate checks the configuration. Failures are INVALID_CONFIG errors.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return errors.InvalidConfig("feed", err.Error()).WithCause(err)
	}
	return nil
}
