package realtime

import "github.com/kbukum/pulse/channel"

// Drain waits until every callback queued so far has run.
func Drain(r *Registry) { r.dispatch.drain() }

// HeartbeatGeneration changes every time the heartbeat monitor of name is
// armed or stopped.
func HeartbeatGeneration(r *Registry, name channel.Name) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.channels[name]; ok {
		return st.heartbeatGen
	}
	return 0
}

// PendingReconnect reports whether name has a reconnect timer armed.
func PendingReconnect(r *Registry, name channel.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.channels[name]; ok {
		return st.reconnectTimer != nil
	}
	return false
}
