// Package action implements the named-action dispatch pipeline.
//
// # Core Types
//
// Handler is the contract every action satisfies: it describes itself, turns
// staged input into a validated payload (Prepare) and runs its business logic on
// that payload (Handle). Define builds a Handler from a typed payload struct, a
// validation schema and a function, so individual actions never deal with
// coercion or validation themselves.
//
// Registry maps action names to handlers. It is constructed explicitly and
// passed to whoever needs it; there is no package-level registry.
//
// Builder stages input for a single invocation and executes it:
//
//	result, err := action.NewBuilder(h).With(map[string]any{"text": "hi"}).Execute(ctx)
//
// Manager combines the two and is what transports talk to:
//
//	result, err := mgr.Execute(ctx, "echo", data)
//
// # Errors
//
// Every failure is an *Error carrying a Kind. errors.Is works against the
// per-kind sentinels (ErrNotFound, ErrValidation, ...) and KindOf extracts the
// kind from any error chain.
package action
