package realtime

import (
	"sync"
)

// dispatcher runs callbacks one at a time, in enqueue order, on its own
// goroutine. The registry enqueues while holding its lock, so callbacks
// observe mutations in the order they happened and never run under it.
type dispatcher struct {
	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	done     chan struct{}
	stopping bool
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			if d.stopping {
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			<-d.wake
			continue
		}
		task := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		task()
	}
}

// enqueue schedules task. It reports false once the dispatcher is stopping.
func (d *dispatcher) enqueue(task func()) bool {
	d.mu.Lock()
	if d.stopping {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// stop rejects new tasks; already queued tasks still run.
func (d *dispatcher) stop() {
	d.mu.Lock()
	d.stopping = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// drain blocks until every task queued before the call has run.
func (d *dispatcher) drain() {
	marker := make(chan struct{})
	if !d.enqueue(func() { close(marker) }) {
		<-d.done
		return
	}
	<-marker
}
