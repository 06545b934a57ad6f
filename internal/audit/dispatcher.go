package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// OnDrop is invoked once per event discarded under backpressure.
	// Owners use it to account drops in their own metrics; the dispatcher
	// itself keeps no count. May be nil.
	OnDrop func()
}

// Dispatcher forwards audit events to a sink from a dedicated goroutine,
// keeping the login hot path off the sink's latency.
type Dispatcher struct {
	sink       Sink
	events     chan Event
	quit       chan struct{}
	stopped    chan struct{}
	dropOnFull bool
	onDrop     func()
	closing    atomic.Bool
	stopOnce   sync.Once
}

// NewDispatcher starts the relay goroutine. Returns nil when auditing is
// disabled; a nil Dispatcher is safe to use and discards everything.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, buffer),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		dropOnFull: cfg.DropIfFull,
		onDrop:     cfg.OnDrop,
	}
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer close(d.stopped)

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			d.flush()
			return
		}
	}
}

// flush delivers whatever is still buffered at shutdown.
func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit enqueues an event. With DropIfFull set, a full buffer discards the
// event and reports it through OnDrop instead of blocking the caller.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropOnFull {
		if !d.offer(event) && d.onDrop != nil {
			d.onDrop()
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// offer attempts a non-blocking enqueue.
func (d *Dispatcher) offer(event Event) bool {
	select {
	case d.events <- event:
		return true
	case <-d.quit:
		return true
	default:
		return false
	}
}

// Close stops the relay after delivering the buffered events. Idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closing.Store(true)
		close(d.quit)
		<-d.stopped
	})
}
