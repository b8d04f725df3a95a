package realtime_test

import (
	"slices"
	"testing"
	"time"

	"github.com/kbukum/pulse/channel"
	"github.com/kbukum/pulse/realtime"
)

// failAndWait fails the current stream of name, checks nothing reopens
// before delay, then advances to delay and waits for the reopen.
func (h *harness) failAndWait(t *testing.T, name channel.Name, delay time.Duration) {
	t.Helper()
	before := h.tr.OpenCountFor(name)
	h.tr.Last(name).Fail(nil)
	if st := h.reg.ChannelStatus(name); st != realtime.StatusDisconnected {
		t.Fatalf("expected disconnected after failure, got %s", st)
	}

	h.clk.Add(delay - time.Millisecond)
	settle()
	if n := h.tr.OpenCountFor(name); n != before {
		t.Fatalf("reopened before %v elapsed", delay)
	}
	h.clk.Add(time.Millisecond)
	waitFor(t, "reopen after "+delay.String(), func() bool {
		return h.tr.OpenCountFor(name) == before+1
	})
	if st := h.reg.ChannelStatus(name); st != realtime.StatusConnecting {
		t.Fatalf("expected connecting on reopen, got %s", st)
	}
}

func TestBackoff_DoublesUpToMax(t *testing.T) {
	h := newHarness(t, nil)
	h.connect(t, runsWS)

	delays := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, d := range delays {
		h.failAndWait(t, runsWS, d)
		if got := h.tr.Last(runsWS).Req().Attempt; got != i+1 {
			t.Errorf("reopen %d: expected attempt %d, got %d", i, i+1, got)
		}
	}
	if n := h.sum(t, realtime.MetricReconnects); n != int64(len(delays)) {
		t.Errorf("expected %d reconnects counted, got %d", len(delays), n)
	}
}

func TestBackoff_ResetsOnOpen(t *testing.T) {
	h := newHarness(t, nil)
	h.connect(t, runsWS)

	h.failAndWait(t, runsWS, time.Second)
	h.failAndWait(t, runsWS, 2*time.Second)
	h.tr.Last(runsWS).Open()
	h.failAndWait(t, runsWS, time.Second)

	if got := h.tr.Last(runsWS).Req().Attempt; got != 1 {
		t.Errorf("expected attempt counter reset by open, got %d", got)
	}
}

func TestBackoff_JitterNeverExceedsSchedule(t *testing.T) {
	h := newHarness(t, func(c *realtime.Config) { c.ReconnectJitter = 0.5 })
	h.connect(t, runsWS)

	for i, d := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		h.tr.Last(runsWS).Fail(nil)
		h.clk.Add(d)
		waitFor(t, "jittered reopen", func() bool { return h.tr.OpenCountFor(runsWS) == i+2 })
	}
}

func TestMaxReconnectAttempts(t *testing.T) {
	h := newHarness(t, func(c *realtime.Config) { c.MaxReconnectAttempts = 2 })
	h.connect(t, runsWS)

	h.failAndWait(t, runsWS, time.Second)
	h.failAndWait(t, runsWS, 2*time.Second)

	h.tr.Last(runsWS).Fail(nil)
	if realtime.PendingReconnect(h.reg, runsWS) {
		t.Fatal("expected no reconnect once attempts are exhausted")
	}
	h.clk.Add(time.Hour)
	settle()
	if n := h.tr.OpenCountFor(runsWS); n != 3 {
		t.Fatalf("expected 3 opens in total, got %d", n)
	}
	info := h.reg.Channels()
	if info[0].Status != realtime.StatusDisconnected || !info[0].Exhausted {
		t.Errorf("expected exhausted disconnected channel, got %+v", info[0])
	}

	if err := h.reg.Reconnect(runsWS); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	if n := h.tr.OpenCountFor(runsWS); n != 4 {
		t.Errorf("manual reconnect should open again, got %d opens", n)
	}
	if got := h.tr.Last(runsWS).Req().Attempt; got != 0 {
		t.Errorf("manual reconnect should reset attempts, got %d", got)
	}
	h.failAndWait(t, runsWS, time.Second)
}

func TestHeartbeat_StaleAndRecover(t *testing.T) {
	h := newHarness(t, nil)
	s := h.connect(t, runsWS)

	for i := 1; i <= 4; i++ {
		h.step(t, runsWS, 10*time.Second)
		if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusConnected {
			t.Fatalf("after %ds: expected connected, got %s", i*10, st)
		}
	}
	h.step(t, runsWS, 10*time.Second)
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusStale {
		t.Fatalf("expected stale after 50s of silence, got %s", st)
	}
	if s.Closed() {
		t.Fatal("stale must leave the transport open")
	}

	s.SendHeartbeat()
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusConnected {
		t.Fatalf("expected heartbeat to restore connected, got %s", st)
	}
}

func TestHeartbeat_FramesKeepChannelLive(t *testing.T) {
	h := newHarness(t, nil)
	s := h.connect(t, runsWS)

	for range 10 {
		h.step(t, runsWS, 10*time.Second)
		s.SendHeartbeat()
	}
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusConnected {
		t.Errorf("regular heartbeats should keep the channel connected, got %s", st)
	}
}

func TestHeartbeat_StaleThenErrorReconnects(t *testing.T) {
	h := newHarness(t, nil)
	s := h.connect(t, runsWS)
	for range 5 {
		h.step(t, runsWS, 10*time.Second)
	}
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusStale {
		t.Fatalf("expected stale, got %s", st)
	}

	s.Fail(nil)
	if !s.Closed() {
		t.Error("expected stream closed on error")
	}
	h.awaitReopen(t, runsWS, time.Second)
}

func (h *harness) awaitReopen(t *testing.T, name channel.Name, delay time.Duration) {
	t.Helper()
	if !realtime.PendingReconnect(h.reg, name) {
		t.Fatal("expected a pending reconnect")
	}
	before := h.tr.OpenCountFor(name)
	h.clk.Add(delay)
	waitFor(t, "reopen", func() bool { return h.tr.OpenCountFor(name) == before+1 })
}

func TestHeartbeat_StopsWhenTransportCloses(t *testing.T) {
	h := newHarness(t, nil)
	s := h.connect(t, runsWS)
	if err := h.reg.Disconnect(runsWS); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	gen := realtime.HeartbeatGeneration(h.reg, runsWS)

	h.clk.Add(time.Minute)
	settle()
	if got := realtime.HeartbeatGeneration(h.reg, runsWS); got != gen {
		t.Error("heartbeat monitor kept running after the transport closed")
	}
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusDisconnected {
		t.Errorf("expected disconnected, got %s", st)
	}
	s.SendHeartbeat()
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusDisconnected {
		t.Errorf("frames on a closed stream must be ignored, got %s", st)
	}
}

func TestTeardownCancelsPendingReconnect(t *testing.T) {
	h := newHarness(t, nil)
	unsub := h.subscribe(t, runsWS, nil)
	h.tr.Last(runsWS).Open()
	h.tr.Last(runsWS).Fail(nil)
	if !realtime.PendingReconnect(h.reg, runsWS) {
		t.Fatal("expected pending reconnect")
	}

	unsub()
	h.clk.Add(time.Hour)
	settle()
	if n := h.tr.OpenCountFor(runsWS); n != 1 {
		t.Errorf("a cancelled reconnect reopened the channel: %d opens", n)
	}
	if len(h.reg.ActiveChannels()) != 0 {
		t.Error("a stale timer resurrected the channel")
	}
}

func TestStatusTransitionsCounted(t *testing.T) {
	h := newHarness(t, nil)
	s := h.connect(t, runsWS)
	s.Fail(nil)

	// connecting, connected, disconnected
	if n := h.sum(t, realtime.MetricStatusTransitions); n != 3 {
		t.Errorf("expected 3 transitions, got %d", n)
	}
	if n := h.sum(t, realtime.MetricActiveChannels); n != 1 {
		t.Errorf("expected 1 active channel, got %d", n)
	}
}

func TestRunsChannel_DeliverFailReconnect(t *testing.T) {
	h := newHarness(t, nil)
	var events recorder[channel.Event]
	h.subscribe(t, runsWS, func(e channel.Event) { events.add(e) })
	var changes recorder[realtime.Status]
	if _, err := h.reg.OnChannelStatusChange(runsWS, func(st realtime.Status) { changes.add(st) }); err != nil {
		t.Fatalf("OnChannelStatusChange failed: %v", err)
	}

	s := h.tr.Last(runsWS)
	s.Open()
	s.SendEvent(channel.EventRunCreated, channel.RunCreatedPayload{RunID: "r1"})
	realtime.Drain(h.reg)
	if got := events.all(); len(got) != 1 || got[0].Type != channel.EventRunCreated {
		t.Fatalf("expected one run_created event, got %+v", got)
	}
	if st := h.reg.ChannelStatus(runsWS); st != realtime.StatusConnected {
		t.Fatalf("expected connected, got %s", st)
	}

	h.failAndWait(t, runsWS, time.Second)
	realtime.Drain(h.reg)

	want := []realtime.Status{realtime.StatusConnected, realtime.StatusDisconnected, realtime.StatusConnecting}
	if got := changes.all(); !slices.Equal(got, want) {
		t.Errorf("transitions = %v, want %v", got, want)
	}
	if events.len() != 1 {
		t.Errorf("transport failure must not reach subscribers, got %d events", events.len())
	}
}
