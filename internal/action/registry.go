package action

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/malikkrehic/action/internal/log"
)

// Registry maps action names to handlers. Registration may happen at any time;
// lookups never observe a partially registered handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under its descriptor name. It fails with KindInvalidHandler
// when h is nil, has no name or no payload type, or when the name is taken; in
// the last case the error also matches ErrDuplicateAction and the existing
// handler stays registered.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return newError(KindInvalidHandler, "", "handler is nil", nil)
	}
	desc := h.Descriptor().normalized()
	if desc.Name == "" {
		return newError(KindInvalidHandler, "", "handler has no name", nil)
	}
	if desc.PayloadType == "" {
		return newError(KindInvalidHandler, desc.Name, "handler declares no payload type", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[desc.Name]; exists {
		return newError(KindInvalidHandler, desc.Name, "", ErrDuplicateAction)
	}
	r.handlers[desc.Name] = h

	log.Debug(log.CatRegistry, "registered action", "action", desc.Name, "data_type", desc.PayloadType)
	return nil
}

// MustRegister registers every handler and panics on the first failure.
func (r *Registry) MustRegister(hs ...Handler) {
	for _, h := range hs {
		if err := r.Register(h); err != nil {
			panic(fmt.Sprintf("action: %v", err))
		}
	}
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, notFound(name)
	}
	return h, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// All returns a copy of the name to handler mapping.
func (r *Registry) All() map[string]Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.handlers)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}

// Descriptors returns the descriptors of every registered handler, sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.handlers))
	for _, name := range slices.Sorted(maps.Keys(r.handlers)) {
		out = append(out, r.handlers[name].Descriptor().normalized())
	}
	return out
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
