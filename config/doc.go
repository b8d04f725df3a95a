// Package config loads configuration for pulse binaries.
//
// It uses Viper to read a YAML config file found in the standard locations
// (./cmd/<service>/config.yml and friends), loads .env files with godotenv,
// overlays environment variables and explicitly set pflag flags, and
// unmarshals the result into a struct that embeds ServiceConfig.
//
//	var cfg WatchConfig
//	err := config.LoadConfig("pulse-watch", &cfg,
//	    config.WithEnvPrefix("PULSE"),
//	    config.WithFlags(flags),
//	)
//
// With prefix PULSE, PULSE_REALTIME_BASE_URL sets realtime.base_url.
package config
