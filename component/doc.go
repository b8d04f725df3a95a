// Package component defines the lifecycle interface shared by pulse's
// long-running parts (channel registry, HTTP servers, telemetry providers)
// and an ordered Registry that starts, stops and health-checks them.
package component
