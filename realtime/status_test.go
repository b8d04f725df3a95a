package realtime_test

import (
	"testing"

	"github.com/kbukum/pulse/realtime"
)

func TestWorst(t *testing.T) {
	const (
		c  = realtime.StatusConnected
		s  = realtime.StatusStale
		cg = realtime.StatusConnecting
		d  = realtime.StatusDisconnected
	)
	tests := []struct {
		name string
		in   []realtime.Status
		want realtime.Status
	}{
		{"empty", nil, d},
		{"all connected", []realtime.Status{c, c}, c},
		{"stale beats connected", []realtime.Status{c, s, c}, s},
		{"connecting beats stale", []realtime.Status{s, cg, c}, cg},
		{"disconnected beats all", []realtime.Status{cg, s, d, c}, d},
		{"single", []realtime.Status{s}, s},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := realtime.Worst(tc.in...); got != tc.want {
				t.Errorf("Worst(%v) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestStatusLive(t *testing.T) {
	live := map[realtime.Status]bool{
		realtime.StatusConnected:    true,
		realtime.StatusConnecting:   true,
		realtime.StatusStale:        false,
		realtime.StatusDisconnected: false,
	}
	for s, want := range live {
		if s.Live() != want {
			t.Errorf("%s.Live() = %v, want %v", s, s.Live(), want)
		}
	}
}

func TestChannelURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://feed/api/events", "http://feed/api/events/run:r%2F1"},
		{"http://feed/api/events/", "http://feed/api/events/run:r%2F1"},
	}
	for _, tc := range tests {
		if got := realtime.ChannelURL(tc.base, "run:r/1"); got != tc.want {
			t.Errorf("ChannelURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}
