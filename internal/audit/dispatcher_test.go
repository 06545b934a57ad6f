package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// collectSink stores every emitted event, optionally blocking until released.
type collectSink struct {
	mu     sync.Mutex
	events []Event
	gate   chan struct{}
}

func (s *collectSink) Emit(_ context.Context, event Event) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := &collectSink{}
	var drops atomic.Uint64
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 64,
		OnDrop:     func() { drops.Add(1) },
	}, sink)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		d.Emit(ctx, Event{EventType: "login", Principal: strconv.Itoa(i)})
	}
	d.Close()

	if got := sink.count(); got != 20 {
		t.Fatalf("delivered %d events, want 20", got)
	}
	if drops.Load() != 0 {
		t.Fatalf("drops = %d, want 0", drops.Load())
	}

	// Emitting after Close is a silent no-op.
	d.Emit(ctx, Event{EventType: "login"})
	d.Close()
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &collectSink{gate: make(chan struct{})}
	var drops atomic.Uint64
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 2,
		DropIfFull: true,
		OnDrop:     func() { drops.Add(1) },
	}, sink)

	ctx := context.Background()
	// The sink is gated, so the first event parks in the worker and the
	// next two fill the buffer. Everything after that must drop without
	// blocking this goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for drops.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher never started dropping")
		}
		d.Emit(ctx, Event{EventType: "login"})
	}

	close(sink.gate)
	d.Close()

	if drops.Load() == 0 {
		t.Fatal("a full buffer must report every drop")
	}
	if sink.count() == 0 {
		t.Fatal("buffered events must still be delivered")
	}
}

func TestDispatcherDropsWithoutHookStayQuiet(t *testing.T) {
	sink := &collectSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// No OnDrop hook installed; overflowing must neither block nor panic.
	for i := 0; i < 50; i++ {
		d.Emit(ctx, Event{EventType: "login"})
	}
	close(sink.gate)
	d.Close()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &collectSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	// The nil dispatcher is usable.
	d.Emit(context.Background(), Event{EventType: "login"})
	d.Close()
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		EventType:  "login",
		Principal:  "alice",
		SessionRef: "0000beef",
		Success:    true,
	})
	sink.Emit(context.Background(), Event{EventType: "logout", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if decoded.Principal != "alice" || decoded.SessionRef != "0000beef" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestChannelSinkHandsEventsToConsumer(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), Event{EventType: "login", Principal: "alice"})

	select {
	case event := <-sink.Events():
		if event.Principal != "alice" {
			t.Fatalf("event = %+v", event)
		}
	default:
		t.Fatal("event must be buffered")
	}
}
