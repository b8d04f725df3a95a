package realtime

import (
	"time"

	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/validation"
)

// Config controls connection, reconnect and heartbeat behavior.
type Config struct {
	// BaseURL is the stream endpoint prefix; a channel is served at
	// <BaseURL>/<path-escaped channel name>.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	// InitialReconnectDelay is the backoff delay after the first failure.
	InitialReconnectDelay time.Duration `yaml:"initial_reconnect_delay" mapstructure:"initial_reconnect_delay" validate:"gt=0"`
	// MaxReconnectDelay caps the backoff delay.
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay" mapstructure:"max_reconnect_delay" validate:"gtefield=InitialReconnectDelay"`
	// HeartbeatTimeout is how long a channel may stay silent before it is
	// marked stale. Size it above the server heartbeat interval plus margin.
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" mapstructure:"heartbeat_timeout" validate:"gt=0"`
	// HeartbeatCheckInterval is the staleness poll cadence.
	HeartbeatCheckInterval time.Duration `yaml:"heartbeat_check_interval" mapstructure:"heartbeat_check_interval" validate:"gt=0,ltfield=HeartbeatTimeout"`
	// MaxReconnectAttempts caps consecutive reconnects. 0 means unbounded.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" mapstructure:"max_reconnect_attempts" validate:"gte=0"`
	// ReconnectJitter removes up to this fraction of each backoff delay at random.
	ReconnectJitter float64 `yaml:"reconnect_jitter" mapstructure:"reconnect_jitter" validate:"gte=0,lte=1"`
	// ResumeWindow keeps a channel's last event ID after its last subscriber
	// leaves, so a resubscribe within the window resumes from it. 0 disables.
	ResumeWindow time.Duration `yaml:"resume_window" mapstructure:"resume_window" validate:"gte=0"`
}

// Defaults.
const (
	DefaultBaseURL                = "http://localhost:8080/api/events"
	DefaultInitialReconnectDelay  = time.Second
	DefaultMaxReconnectDelay      = 30 * time.Second
	DefaultHeartbeatTimeout       = 45 * time.Second // 30s server interval + 15s margin
	DefaultHeartbeatCheckInterval = 10 * time.Second
)

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.InitialReconnectDelay <= 0 {
		c.InitialReconnectDelay = DefaultInitialReconnectDelay
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if c.HeartbeatCheckInterval <= 0 {
		c.HeartbeatCheckInterval = DefaultHeartbeatCheckInterval
	}
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	err := validation.Validate(c)
	if err == nil {
		return nil
	}
	fe, ok := err.(validation.FieldErrors)
	if !ok {
		return errors.InvalidConfig("realtime", err.Error())
	}
	first, _ := fe.First()
	return errors.InvalidConfig("realtime."+first.Field, first.Message).WithCause(err)
}
