package realtime

// Status is the connection state of a channel, or the aggregate over all channels.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusStale        Status = "stale"
	StatusDisconnected Status = "disconnected"
)

func (s Status) String() string { return string(s) }

// severity orders statuses from best (0) to worst.
func (s Status) severity() int {
	switch s {
	case StatusConnected:
		return 0
	case StatusStale:
		return 1
	case StatusConnecting:
		return 2
	default:
		return 3
	}
}

// Worse reports whether s is worse than other.
func (s Status) Worse(other Status) bool {
	return s.severity() > other.severity()
}

// Worst returns the worst of statuses, or StatusDisconnected when empty.
// Ordering from worst to best: disconnected, connecting, stale, connected.
func Worst(statuses ...Status) Status {
	if len(statuses) == 0 {
		return StatusDisconnected
	}
	worst := statuses[0]
	for _, s := range statuses[1:] {
		if s.Worse(worst) {
			worst = s
		}
	}
	return worst
}

// Live reports whether s is connected or connecting.
func (s Status) Live() bool {
	return s == StatusConnected || s == StatusConnecting
}
