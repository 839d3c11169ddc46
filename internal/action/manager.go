package action

import (
	"context"

	"github.com/malikkrehic/action/internal/pubsub"
)

// Manager is the entry point transports use to run actions by name.
type Manager struct {
	registry   *Registry
	middleware []Middleware
	rejects    []RejectFunc
	bus        *pubsub.Broker[Event]
}

// Option configures a Manager.
type Option func(*Manager)

// WithMiddleware appends middleware around every invocation. The first
// middleware given is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(m *Manager) {
		m.middleware = append(m.middleware, mw...)
	}
}

// WithRejectHooks calls every fn for invocations that fail before reaching the
// middleware chain: unknown names, missing data, coercion and validation.
func WithRejectHooks(fns ...RejectFunc) Option {
	return func(m *Manager) {
		m.rejects = append(m.rejects, fns...)
	}
}

// WithEventBus publishes an Event for every Execute call on bus.
func WithEventBus(bus *pubsub.Broker[Event]) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// NewManager creates a Manager over reg.
func NewManager(reg *Registry, opts ...Option) *Manager {
	m := &Manager{registry: reg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Make returns a fresh Builder for the named action.
func (m *Manager) Make(name string) (*Builder, error) {
	h, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return &Builder{handler: h, middleware: m.middleware, rejects: m.rejects, bus: m.bus}, nil
}

// Execute runs the named action with an untyped payload.
func (m *Manager) Execute(ctx context.Context, name string, data map[string]any) (any, error) {
	b, err := m.Make(name)
	if err != nil {
		notifyRejected(ctx, m.rejects, newInvocation(name, nil), err)
		return nil, err
	}
	return b.With(data).Execute(ctx)
}

// ExecutePayload runs the named action with a typed payload.
func (m *Manager) ExecutePayload(ctx context.Context, name string, payload any) (any, error) {
	b, err := m.Make(name)
	if err != nil {
		notifyRejected(ctx, m.rejects, newInvocation(name, nil), err)
		return nil, err
	}
	return b.WithPayload(payload).Execute(ctx)
}

// All returns a snapshot of the registered handlers.
func (m *Manager) All() map[string]Handler {
	return m.registry.All()
}

// Has reports whether name is registered.
func (m *Manager) Has(name string) bool {
	return m.registry.Has(name)
}

// Names returns the registered action names, sorted.
func (m *Manager) Names() []string {
	return m.registry.Names()
}

// Metadata returns the descriptor of the named action.
func (m *Manager) Metadata(name string) (Descriptor, error) {
	h, err := m.registry.Get(name)
	if err != nil {
		return Descriptor{}, err
	}
	return h.Descriptor().normalized(), nil
}

// Descriptors returns every registered descriptor, sorted by name.
func (m *Manager) Descriptors() []Descriptor {
	return m.registry.Descriptors()
}
