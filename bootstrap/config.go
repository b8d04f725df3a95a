package bootstrap

import "github.com/kbukum/pulse/config"

// Config is satisfied by any struct embedding config.ServiceConfig that
// also overrides ApplyDefaults and Validate for its own fields.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
