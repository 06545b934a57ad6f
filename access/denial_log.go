package access

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// DefaultDenialWindow is how long identical denials are suppressed after
// one is logged.
const DefaultDenialWindow = 5 * time.Minute

type denialState struct {
	windowStart time.Time
	suppressed  uint64
}

// DenialLogger samples denial log lines per key: within one window only the
// first denial for a key is logged, later identical denials bump a
// suppression counter. After the window elapses the next denial logs again
// and reports how many were suppressed.
type DenialLogger struct {
	log    logr.Logger
	window time.Duration

	mu    sync.Mutex
	seen  map[string]*denialState
	now   func() time.Time
	count uint64
}

// NewDenialLogger builds a logger with the given sampling window. A
// non-positive window uses DefaultDenialWindow.
func NewDenialLogger(log logr.Logger, window time.Duration) *DenialLogger {
	if window <= 0 {
		window = DefaultDenialWindow
	}
	return &DenialLogger{
		log:    log,
		window: window,
		seen:   make(map[string]*denialState),
		now:    time.Now,
	}
}

// Record runs emit for the first denial of a key in each window. The emit
// callback receives the count of denials suppressed since the last logged
// one.
func (d *DenialLogger) Record(key string, emit func(log logr.Logger, suppressed uint64)) {
	d.mu.Lock()

	now := d.now()
	state, ok := d.seen[key]
	if ok && now.Sub(state.windowStart) < d.window {
		state.suppressed++
		d.mu.Unlock()
		return
	}

	var suppressed uint64
	if ok {
		suppressed = state.suppressed
	}
	d.seen[key] = &denialState{windowStart: now}
	d.count++
	d.mu.Unlock()

	emit(d.log, suppressed)
}

// Logged returns how many denial lines have actually been emitted.
func (d *DenialLogger) Logged() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}
