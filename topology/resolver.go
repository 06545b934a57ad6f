package topology

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Endpoint is a network address at which a login-capable service for some
// resource can be reached.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ErrResourceUnknown is returned by resolvers for resource ids that are not
// present in the current topology.
var ErrResourceUnknown = errors.New("resource not in topology")

// Resolver is the directory service consumed by login handles. Lookups may
// involve network I/O in real deployments, so every method takes a context.
type Resolver interface {
	// Resolve returns the endpoints at which the named resource exposes a
	// login-capable service, in preference order.
	Resolve(ctx context.Context, id ResourceID) ([]Endpoint, error)

	// AnyHealthyReplica returns an endpoint for any replica node currently
	// believed healthy. Used for persistent-session resolution, where any
	// replica can validate or extend the session.
	AnyHealthyReplica(ctx context.Context) (Endpoint, error)
}

// Table is a static, in-memory Resolver used for bootstrap configurations
// and tests. Safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	entries  map[ResourceID][]Endpoint
	replicas []Endpoint
}

// NewTable returns an empty topology table.
func NewTable() *Table {
	return &Table{entries: make(map[ResourceID][]Endpoint)}
}

// Add registers endpoints for a resource. Replica-node endpoints also join
// the healthy-replica rotation.
func (t *Table) Add(id ResourceID, eps ...Endpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = append(t.entries[id], eps...)
	if id.Type == ReplicaNode {
		t.replicas = append(t.replicas, eps...)
	}
}

// Resolve implements Resolver.
func (t *Table) Resolve(_ context.Context, id ResourceID) ([]Endpoint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	eps, ok := t.entries[id]
	if !ok || len(eps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrResourceUnknown, id)
	}
	out := make([]Endpoint, len(eps))
	copy(out, eps)
	return out, nil
}

// AnyHealthyReplica implements Resolver. The static table treats every
// registered replica as healthy and returns the first.
func (t *Table) AnyHealthyReplica(_ context.Context) (Endpoint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.replicas) == 0 {
		return Endpoint{}, fmt.Errorf("%w: no replica nodes registered", ErrResourceUnknown)
	}
	return t.replicas[0], nil
}
