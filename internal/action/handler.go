package action

import "context"

// Handler is implemented by every registered action. The dispatch pipeline
// calls Prepare and then Handle; it never inspects the concrete type.
type Handler interface {
	Descriptor() Descriptor
	// Prepare turns staged input into a validated payload.
	Prepare(ctx context.Context, in Input) (any, error)
	// Handle runs the action on a payload returned by Prepare.
	Handle(ctx context.Context, payload any) (any, error)
}

// FieldLister is optionally implemented by handlers that can name their payload
// fields. Transports use it to describe inputs.
type FieldLister interface {
	PayloadFields() []string
}

type inputKind int

const (
	inputNone inputKind = iota
	inputRaw
	inputTyped
)

// Input is the data staged for one invocation: either an untyped map (Raw) or
// an already-built payload (Typed). The zero Input holds nothing.
type Input struct {
	kind  inputKind
	raw   map[string]any
	typed any
}

// Raw stages an untyped map that still needs coercion.
func Raw(m map[string]any) Input {
	if m == nil {
		m = map[string]any{}
	}
	return Input{kind: inputRaw, raw: m}
}

// Typed stages a payload value built by the caller. It is still validated.
func Typed(p any) Input {
	return Input{kind: inputTyped, typed: p}
}

// IsZero reports whether nothing was staged.
func (in Input) IsZero() bool { return in.kind == inputNone }

// RawData returns the staged map and true for Raw input.
func (in Input) RawData() (map[string]any, bool) {
	return in.raw, in.kind == inputRaw
}

// TypedData returns the staged payload and true for Typed input.
func (in Input) TypedData() (any, bool) {
	return in.typed, in.kind == inputTyped
}
