package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/pulse/validation"
)

const (
	defaultDialTimeout   = 10 * time.Second
	defaultHeaderTimeout = 15 * time.Second
	defaultReadIdle      = 30 * time.Second
	defaultPingTimeout   = 15 * time.Second
)

// Config configures the streaming HTTP client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// DialTimeout bounds TCP connection setup. Defaults to 10s.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gt=0"`

	// HeaderTimeout bounds the wait for response headers. The body of a
	// stream is never subject to a timeout; cancel the context instead.
	// Defaults to 15s.
	HeaderTimeout time.Duration `yaml:"header_timeout" mapstructure:"header_timeout" validate:"gt=0"`

	// H2C speaks cleartext HTTP/2 with prior knowledge, so every channel
	// stream to one host shares a single TCP connection.
	H2C bool `yaml:"h2c" mapstructure:"h2c"`

	// ReadIdleTimeout and PingTimeout drive HTTP/2 health checks in H2C
	// mode: after ReadIdleTimeout without frames a ping is sent, and the
	// connection is dropped if no ack arrives within PingTimeout.
	ReadIdleTimeout time.Duration `yaml:"read_idle_timeout" mapstructure:"read_idle_timeout" validate:"gte=0"`
	PingTimeout     time.Duration `yaml:"ping_timeout" mapstructure:"ping_timeout" validate:"gte=0"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = defaultHeaderTimeout
	}
	if c.ReadIdleTimeout <= 0 {
		c.ReadIdleTimeout = defaultReadIdle
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}
