package realtime

import (
	"context"
	"sync"

	"github.com/kbukum/pulse/channel"
)

// Binding ties one subscription to a consumer's lifetime. Close must be
// called when the consumer goes away; BindContext and WithBinding do it for
// you.
type Binding struct {
	reg   *Registry
	name  channel.Name
	unsub Unsubscribe

	mu        sync.Mutex
	closed    bool
	listeners []func()
}

// Bind subscribes h to name and returns the scoped subscription.
func Bind(reg *Registry, name channel.Name, h Handler) (*Binding, error) {
	unsub, err := reg.Subscribe(name, h)
	if err != nil {
		return nil, err
	}
	return &Binding{reg: reg, name: name, unsub: unsub}, nil
}

// BindContext is Bind with the binding closed once ctx is done.
func BindContext(ctx context.Context, reg *Registry, name channel.Name, h Handler) (*Binding, error) {
	b, err := Bind(reg, name, h)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, b.Close)
	b.mu.Lock()
	b.listeners = append(b.listeners, func() { stop() })
	b.mu.Unlock()
	return b, nil
}

// WithBinding runs fn with a binding on name and closes it when fn returns,
// including when fn fails or panics.
func WithBinding(reg *Registry, name channel.Name, h Handler, fn func(*Binding) error) error {
	b, err := Bind(reg, name, h)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

// Channel returns the bound channel name.
func (b *Binding) Channel() channel.Name { return b.name }

// Close unsubscribes, then removes every listener added through the
// binding. Listeners still see the final StatusDisconnected when Close
// releases the channel. It is safe to call more than once.
func (b *Binding) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	listeners := b.listeners
	b.listeners = nil
	b.mu.Unlock()

	b.unsub()
	for _, remove := range listeners {
		remove()
	}
}

// Closed reports whether Close has been called.
func (b *Binding) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Status returns the channel status, StatusDisconnected once closed.
func (b *Binding) Status() Status {
	if b.Closed() {
		return StatusDisconnected
	}
	return b.reg.ChannelStatus(b.name)
}

// IsConnected reports connected or connecting.
func (b *Binding) IsConnected() bool { return b.Status().Live() }

// IsStale reports whether the channel has gone quiet past the heartbeat timeout.
func (b *Binding) IsStale() bool { return b.Status() == StatusStale }

// Reconnect forces a fresh connection for the bound channel.
func (b *Binding) Reconnect() error {
	return b.reg.Reconnect(b.name)
}

// Disconnect closes the bound channel's transport without unsubscribing.
func (b *Binding) Disconnect() error {
	return b.reg.Disconnect(b.name)
}

// OnStatusChange registers fn for the bound channel's transitions until the
// binding closes.
func (b *Binding) OnStatusChange(fn StatusListener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	remove, err := b.reg.OnChannelStatusChange(b.name, fn)
	if err != nil {
		return err
	}
	b.listeners = append(b.listeners, remove)
	return nil
}
