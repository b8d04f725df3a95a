package sse

import "github.com/kbukum/pulse/channel"

// Publisher publishes events onto channels. Demo generators and HTTP
// handlers depend on it rather than on a concrete Hub.
type Publisher interface {
	Publish(name channel.Name, et channel.EventType, payload any) (channel.Event, error)
}

var _ Publisher = (*Hub)(nil)
