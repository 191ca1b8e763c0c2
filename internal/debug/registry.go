// Package debug holds opt-in handles to live components so their state can be
// dumped for inspection. Nothing is registered unless the caller builds a
// Registry and passes it around explicitly.
package debug

import (
	"fmt"
	"sort"
	"sync"
)

// Snapshotter reports a point-in-time view of a component.
type Snapshotter interface {
	Snapshot() interface{}
}

// SnapshotFunc adapts a plain function to Snapshotter.
type SnapshotFunc func() interface{}

func (f SnapshotFunc) Snapshot() interface{} { return f() }

// Registry maps names to snapshotters. The zero value is not usable; a nil
// *Registry accepts registrations and dumps nothing.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Snapshotter
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Snapshotter)}
}

// Register adds s under name, replacing any earlier entry.
func (r *Registry) Register(name string, s Snapshotter) error {
	if r == nil {
		return nil
	}
	if name == "" {
		return fmt.Errorf("debug: empty registration name")
	}
	if s == nil {
		return fmt.Errorf("debug: nil snapshotter for %q", name)
	}
	r.mu.Lock()
	r.entries[name] = s
	r.mu.Unlock()
	return nil
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dump collects a snapshot from every entry.
func (r *Registry) Dump() map[string]interface{} {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	entries := make(map[string]Snapshotter, len(r.entries))
	for name, s := range r.entries {
		entries[name] = s
	}
	r.mu.Unlock()

	out := make(map[string]interface{}, len(entries))
	for name, s := range entries {
		out[name] = s.Snapshot()
	}
	return out
}
