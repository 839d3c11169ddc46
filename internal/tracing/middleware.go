package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/malikkrehic/action/internal/action"
)

// MiddlewareConfig configures the tracing middleware.
type MiddlewareConfig struct {
	// Tracer creates the spans. If nil, the middleware is a pass-through.
	Tracer trace.Tracer
}

// NewTracingMiddleware wraps every invocation in a span named after the action
// and records the error kind on failure.
func NewTracingMiddleware(cfg MiddlewareConfig) action.Middleware {
	if cfg.Tracer == nil {
		return func(next action.Invoker) action.Invoker {
			return next
		}
	}

	return func(next action.Invoker) action.Invoker {
		return action.InvokerFunc(func(ctx context.Context, inv action.Invocation) (any, error) {
			ctx, span := cfg.Tracer.Start(ctx, SpanPrefixInvoke+inv.Action,
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			span.SetAttributes(
				attribute.String(AttrActionName, inv.Action),
				attribute.String(AttrInvocationID, inv.ID),
				attribute.String(AttrPayloadType, fmt.Sprintf("%T", inv.Payload)),
			)
			if key, ok := action.IdempotencyKeyFrom(ctx); ok {
				span.SetAttributes(attribute.String(AttrIdempotencyKey, key))
			}

			result, err := next.Invoke(ctx, inv)

			if err != nil {
				span.RecordError(err)
				if kind := action.KindOf(err); kind != "" {
					span.SetAttributes(attribute.String(AttrErrorKind, string(kind)))
				}
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return result, err
		})
	}
}

// NewRejectionRecorder returns a hook that records a short error span for
// invocations rejected before the middleware chain ran.
func NewRejectionRecorder(cfg MiddlewareConfig) action.RejectFunc {
	if cfg.Tracer == nil {
		return func(context.Context, action.Invocation, error) {}
	}

	return func(ctx context.Context, inv action.Invocation, err error) {
		_, span := cfg.Tracer.Start(ctx, SpanPrefixReject+inv.Action,
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		span.SetAttributes(
			attribute.String(AttrActionName, inv.Action),
			attribute.String(AttrInvocationID, inv.ID),
		)
		span.RecordError(err)
		if kind := action.KindOf(err); kind != "" {
			span.SetAttributes(attribute.String(AttrErrorKind, string(kind)))
		}
		span.SetStatus(codes.Error, err.Error())
	}
}
