// Package version reports build information for pulse binaries.
//
// Version and BuildTime are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/pulse/version.Version=1.2.0" ./cmd/pulse-watch
//
// The commit and dirty flag come from the VCS stamp the go tool embeds.
package version
