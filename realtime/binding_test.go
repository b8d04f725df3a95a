package realtime_test

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/realtime"
)

func TestBind(t *testing.T) {
	h := newHarness(t, nil)
	var got recorder[channel.Event]
	b, err := realtime.Bind(h.reg, runsWS, func(e channel.Event) { got.add(e) })
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if b.Channel() != runsWS {
		t.Errorf("unexpected channel %s", b.Channel())
	}
	if !b.IsConnected() || b.IsStale() {
		t.Errorf("connecting should read as connected, status %s", b.Status())
	}

	var changes recorder[realtime.Status]
	if err := b.OnStatusChange(func(s realtime.Status) { changes.add(s) }); err != nil {
		t.Fatalf("OnStatusChange failed: %v", err)
	}
	s := h.tr.Last(runsWS)
	s.Open()
	s.SendEvent(channel.EventRunCreated, nil)

	if err := b.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if b.IsConnected() {
		t.Error("expected not connected after Disconnect")
	}
	if err := b.Reconnect(); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}

	b.Close()
	b.Close()
	realtime.Drain(h.reg)

	if got.len() != 1 {
		t.Errorf("expected 1 event, got %d", got.len())
	}
	want := []realtime.Status{
		realtime.StatusConnected,
		realtime.StatusDisconnected,
		realtime.StatusConnecting,
		realtime.StatusDisconnected,
	}
	if !slices.Equal(changes.all(), want) {
		t.Errorf("status changes = %v, want %v", changes.all(), want)
	}
	if b.Status() != realtime.StatusDisconnected || !b.Closed() {
		t.Error("closed binding should read disconnected")
	}
	if n := h.reg.SubscriberCount(runsWS); n != 0 {
		t.Errorf("expected no subscribers after Close, got %d", n)
	}
	if err := b.Reconnect(); !errors.IsCode(err, errors.ErrCodeChannelNotFound) {
		t.Errorf("expected CHANNEL_NOT_FOUND after close, got %v", err)
	}
}

func TestBind_InvalidChannel(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := realtime.Bind(h.reg, "run", nil); !errors.IsCode(err, errors.ErrCodeInvalidChannel) {
		t.Errorf("expected INVALID_CHANNEL, got %v", err)
	}
}

func TestBindContext(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	b, err := realtime.BindContext(ctx, h.reg, runsWS, nil)
	if err != nil {
		t.Fatalf("BindContext failed: %v", err)
	}
	s := h.tr.Last(runsWS)

	cancel()
	waitFor(t, "stream closed", s.Closed)
	if !b.Closed() {
		t.Error("expected binding closed when the context ends")
	}
	if n := h.reg.SubscriberCount(runsWS); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
}

func TestWithBinding(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(*realtime.Binding) error
		wantErr bool
		panics  bool
	}{
		{"returns nil", func(*realtime.Binding) error { return nil }, false, false},
		{"returns error", func(*realtime.Binding) error { return fmt.Errorf("render failed") }, true, false},
		{"panics", func(*realtime.Binding) error { panic("render crashed") }, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, nil)
			var seen int
			run := func() (err error) {
				defer func() {
					if r := recover(); r != nil && !tc.panics {
						t.Fatalf("unexpected panic: %v", r)
					}
				}()
				return realtime.WithBinding(h.reg, runsWS, nil, func(b *realtime.Binding) error {
					seen = h.reg.SubscriberCount(runsWS)
					return tc.fn(b)
				})
			}

			err := run()
			if (err != nil) != tc.wantErr {
				t.Errorf("unexpected error result %v", err)
			}
			if seen != 1 {
				t.Errorf("expected subscription active inside fn, got %d", seen)
			}
			if n := h.reg.SubscriberCount(runsWS); n != 0 {
				t.Errorf("binding leaked a subscriber: %d", n)
			}
		})
	}
}
