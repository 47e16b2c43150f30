// Package flags implements the deferred dirty-flag system that drives
// perception refreshes. Renderable objects declare a static flag table;
// setting a flag propagates transitively to dependent flags, suppresses
// redundant ones, and enqueues the object for the next scheduler drain.
package flags

import "fmt"

// ErrInvalidFlag is returned when a Set names a flag absent from the
// object's declared table. That is a programming error in the caller; the
// frame continues.
var ErrInvalidFlag = fmt.Errorf("invalid render flag")

// Descriptor declares one flag's behavior.
type Descriptor struct {
	// Propagate lists flags that become true whenever this one is set.
	Propagate []string
	// Reset lists flags forced false whenever this one is set.
	Reset []string
	// Alias flags trigger propagation but are never stored or iterated
	// themselves.
	Alias bool
}

// Table is the static flag declaration of one entity kind.
type Table map[string]Descriptor

// Priority orders drain batches within a tick.
type Priority uint8

const (
	PriorityObjects Priority = iota
	PriorityPerception
	PriorityPresentation
	priorityCount
)

// Target receives the drained flag snapshot. The snapshot is the object's
// to read; the stored flags were already cleared before the call.
type Target interface {
	ApplyRenderFlags(active map[string]bool)
}

// Object is the per-entity flag holder handed out by Scheduler.Register.
type Object struct {
	table    Table
	set      map[string]bool
	target   Target
	priority Priority
	sched    *Scheduler
	seq      int
	pending  bool
}

// Set applies the given flag values. True values walk the propagation graph
// transitively (a per-call seen set breaks cycles) and apply reset lists;
// false values simply clear. Any undeclared flag aborts the whole call with
// ErrInvalidFlag before mutating state.
func (o *Object) Set(values map[string]bool) error {
	for name := range values {
		if _, ok := o.table[name]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidFlag, name)
		}
	}
	seen := make(map[string]bool)
	for name, v := range values {
		if !v {
			delete(o.set, name)
			continue
		}
		o.raise(name, seen)
	}
	if len(o.set) > 0 && !o.pending {
		o.pending = true
		o.sched.enqueue(o)
	}
	return nil
}

func (o *Object) raise(name string, seen map[string]bool) {
	if seen[name] {
		return
	}
	seen[name] = true
	desc := o.table[name]
	if !desc.Alias {
		o.set[name] = true
	}
	for _, r := range desc.Reset {
		delete(o.set, r)
	}
	for _, p := range desc.Propagate {
		if _, ok := o.table[p]; ok {
			o.raise(p, seen)
		}
	}
}

// Has reports whether the flag is currently stored.
func (o *Object) Has(name string) bool {
	return o.set[name]
}

// Pending reports whether the object awaits a drain.
func (o *Object) Pending() bool {
	return o.pending
}
