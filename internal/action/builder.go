package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/malikkrehic/action/internal/pubsub"
)

// Builder stages the input for a single invocation of a handler. A Builder is
// meant for one Execute call and is not safe for concurrent use.
type Builder struct {
	handler    Handler
	input      Input
	middleware []Middleware
	rejects    []RejectFunc
	bus        *pubsub.Broker[Event]
}

// NewBuilder returns a Builder for h with nothing staged.
func NewBuilder(h Handler) *Builder {
	return &Builder{handler: h}
}

// With stages an untyped map, replacing anything staged before.
func (b *Builder) With(data map[string]any) *Builder {
	b.input = Raw(data)
	return b
}

// WithPayload stages a typed payload, replacing anything staged before.
// Passing nil clears the staged input.
func (b *Builder) WithPayload(payload any) *Builder {
	if payload == nil {
		b.input = Input{}
		return b
	}
	b.input = Typed(payload)
	return b
}

// Metadata returns the handler's descriptor.
func (b *Builder) Metadata() Descriptor {
	return b.handler.Descriptor().normalized()
}

// PayloadType returns the identifier of the handler's payload type.
func (b *Builder) PayloadType() string {
	return b.handler.Descriptor().PayloadType
}

// Execute prepares the staged input and invokes the handler through the
// middleware chain. Every returned error is an *Error.
func (b *Builder) Execute(ctx context.Context) (any, error) {
	inv := newInvocation(b.Metadata().Name, nil)
	result, invoked, err := b.execute(ctx, &inv)
	if err != nil && !invoked {
		notifyRejected(ctx, b.rejects, inv, err)
	}
	publishOutcome(b.bus, inv, err)
	return result, err
}

// execute sets inv.Payload once the input is prepared. invoked reports
// whether the middleware chain ran.
func (b *Builder) execute(ctx context.Context, inv *Invocation) (result any, invoked bool, err error) {
	name := inv.Action
	if b.input.IsZero() {
		return nil, false, newError(KindMissingData, name, "", nil)
	}

	payload, err := protect(name, func() (any, error) {
		return b.handler.Prepare(ctx, b.input)
	})
	if err != nil {
		return nil, false, asHandlerFailure(name, err)
	}
	inv.Payload = payload

	terminal := InvokerFunc(func(ctx context.Context, inv Invocation) (any, error) {
		return protect(name, func() (any, error) {
			return b.handler.Handle(ctx, inv.Payload)
		})
	})

	result, err = ChainMiddleware(terminal, b.middleware...).Invoke(ctx, *inv)
	if err != nil {
		return nil, true, asHandlerFailure(name, err)
	}
	return result, true, nil
}

var errPanic = errors.New("handler panicked")

// protect turns a panic in fn into a KindHandlerFailure error.
func protect(name string, fn func() (any, error)) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newError(KindHandlerFailure, name, fmt.Sprintf("panic: %v", r), errPanic)
		}
	}()
	return fn()
}
