package action

import (
	"context"
	"fmt"
	"reflect"

	"github.com/malikkrehic/action/internal/validation"
)

// HandleFunc is the business logic of an action with payload type P.
type HandleFunc[P any] func(ctx context.Context, payload *P) (any, error)

// Spec declares an action for Define.
type Spec[P any] struct {
	Name        string
	Description string
	// PayloadType defaults to the Go type name of P.
	PayloadType string
	Schema      *validation.Schema[P]
}

type definedHandler[P any] struct {
	desc   Descriptor
	schema *validation.Schema[P]
	fn     HandleFunc[P]
}

var _ Handler = (*definedHandler[struct{}])(nil)
var _ FieldLister = (*definedHandler[struct{}])(nil)

// Define builds a Handler whose payloads are *P values coerced from raw input
// and checked against spec.Schema. A nil fn is accepted; invoking the handler
// then fails with KindUnimplemented.
func Define[P any](spec Spec[P], fn HandleFunc[P]) Handler {
	desc := Descriptor{
		Name:        spec.Name,
		Description: spec.Description,
		PayloadType: spec.PayloadType,
	}
	if desc.PayloadType == "" {
		desc.PayloadType = reflect.TypeFor[P]().String()
	}
	return &definedHandler[P]{
		desc:   desc.normalized(),
		schema: spec.Schema,
		fn:     fn,
	}
}

func (h *definedHandler[P]) Descriptor() Descriptor { return h.desc }

func (h *definedHandler[P]) PayloadFields() []string { return h.schema.Fields() }

func (h *definedHandler[P]) Prepare(ctx context.Context, in Input) (any, error) {
	name := h.desc.Name
	payload := new(P)

	if raw, ok := in.RawData(); ok {
		if err := validation.Coerce(raw, payload); err != nil {
			return nil, newError(KindCoercion, name, ErrCoercion.Error(), err)
		}
	} else if typed, ok := in.TypedData(); ok {
		switch p := typed.(type) {
		case P:
			*payload = p
		case *P:
			if p == nil {
				return nil, newError(KindCoercion, name, fmt.Sprintf("expected payload %s, got nil", h.desc.PayloadType), nil)
			}
			*payload = *p
		default:
			return nil, newError(KindCoercion, name, fmt.Sprintf("expected payload %s, got %T", h.desc.PayloadType, typed), nil)
		}
	} else {
		return nil, newError(KindMissingData, name, "", nil)
	}

	violations, err := h.schema.Validate(ctx, payload)
	if err != nil {
		return nil, newError(KindHandlerFailure, name, "validation could not complete", err)
	}
	if !violations.Empty() {
		e := newError(KindValidation, name, "", nil)
		e.Fields = violations
		return nil, e
	}
	return payload, nil
}

func (h *definedHandler[P]) Handle(ctx context.Context, payload any) (any, error) {
	if h.fn == nil {
		return nil, newError(KindUnimplemented, h.desc.Name, "handle not implemented", nil)
	}
	p, ok := payload.(*P)
	if !ok {
		return nil, newError(KindCoercion, h.desc.Name, fmt.Sprintf("expected payload %s, got %T", h.desc.PayloadType, payload), nil)
	}
	return h.fn(ctx, p)
}
