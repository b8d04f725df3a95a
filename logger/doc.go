// Package logger provides structured logging for pulse using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields. The realtime layer
// logs every status transition and every dropped frame through it.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("realtime")
//	log.Info("channel connected", logger.ChannelFields("runs:ws_1", "connected"))
package logger
