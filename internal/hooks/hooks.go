// Package hooks is a typed observer registry with synchronous, fire-and-
// forget delivery. Re-entrant calls on the same hook are dropped rather than
// nested.
package hooks

import "sync"

// Engine lifecycle hooks.
const (
	InitializeVisionSources = "initializeVisionSources"
	InitializeLightSources  = "initializeLightSources"
	LightingRefresh         = "lightingRefresh"
	SightRefresh            = "sightRefresh"
	RefreshOcclusion        = "refreshOcclusion"
	FogReset                = "fogReset"
)

type Handler func(payload any)

type Logger interface {
	Printf(format string, v ...interface{})
}

// Registry dispatches hook events to registered handlers in registration
// order on the caller's goroutine.
type Registry struct {
	mu       sync.Mutex
	handlers map[string][]entry
	firing   map[string]bool
	nextID   int
	logger   Logger
}

type entry struct {
	id int
	fn Handler
}

func NewRegistry(logger Logger) *Registry {
	return &Registry{
		handlers: make(map[string][]entry),
		firing:   make(map[string]bool),
		logger:   logger,
	}
}

// Register attaches a handler and returns a function that removes it.
func (r *Registry) Register(hook string, fn Handler) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[hook] = append(r.handlers[hook], entry{id: id, fn: fn})
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		list := r.handlers[hook]
		for i, e := range list {
			if e.id == id {
				r.handlers[hook] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Call delivers the payload to every handler synchronously. A handler that
// calls back into the same hook is skipped; hook delivery never re-enters.
func (r *Registry) Call(hook string, payload any) {
	r.mu.Lock()
	if r.firing[hook] {
		r.mu.Unlock()
		r.logger.Printf("dropping re-entrant call on hook %q", hook)
		return
	}
	r.firing[hook] = true
	list := make([]entry, len(r.handlers[hook]))
	copy(list, r.handlers[hook])
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.firing[hook] = false
		r.mu.Unlock()
	}()
	for _, e := range list {
		e.fn(payload)
	}
}
