package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/malikkrehic/action/internal/action"
)

type greetPayload struct {
	Name string `json:"name"`
}

func setupTracer(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder, tp
}

func newManager(t *testing.T, mw action.Middleware, fn action.HandleFunc[greetPayload]) *action.Manager {
	t.Helper()
	reg := action.NewRegistry()
	require.NoError(t, reg.Register(action.Define(action.Spec[greetPayload]{Name: "greet"}, fn)))
	return action.NewManager(reg, action.WithMiddleware(mw))
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingMiddleware_NilTracerPassesThrough(t *testing.T) {
	mgr := newManager(t, NewTracingMiddleware(MiddlewareConfig{}), func(_ context.Context, p *greetPayload) (any, error) {
		return "hi " + p.Name, nil
	})

	result, err := mgr.Execute(context.Background(), "greet", map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "hi ada", result)
}

func TestTracingMiddleware_RecordsSuccessSpan(t *testing.T) {
	recorder, tp := setupTracer(t)
	mgr := newManager(t, NewTracingMiddleware(MiddlewareConfig{Tracer: tp.Tracer("test")}), func(_ context.Context, p *greetPayload) (any, error) {
		return "hi " + p.Name, nil
	})

	ctx := action.WithIdempotencyKey(context.Background(), "key-1")
	_, err := mgr.Execute(ctx, "greet", map[string]any{"name": "ada"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "action.invoke.greet", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	v, ok := attrValue(span.Attributes(), AttrActionName)
	require.True(t, ok)
	assert.Equal(t, "greet", v.AsString())
	v, ok = attrValue(span.Attributes(), AttrIdempotencyKey)
	require.True(t, ok)
	assert.Equal(t, "key-1", v.AsString())
	v, ok = attrValue(span.Attributes(), AttrPayloadType)
	require.True(t, ok)
	assert.Equal(t, "*tracing.greetPayload", v.AsString())
	v, ok = attrValue(span.Attributes(), AttrInvocationID)
	require.True(t, ok)
	assert.NotEmpty(t, v.AsString())
}

func TestTracingMiddleware_RecordsFailureKind(t *testing.T) {
	recorder, tp := setupTracer(t)
	mgr := newManager(t, NewTracingMiddleware(MiddlewareConfig{Tracer: tp.Tracer("test")}), func(context.Context, *greetPayload) (any, error) {
		return nil, &action.Error{Kind: action.KindHandlerFailure, Message: "db down", Err: errors.New("conn refused")}
	})

	_, err := mgr.Execute(context.Background(), "greet", map[string]any{})
	require.ErrorIs(t, err, action.ErrHandlerFailure)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	v, ok := attrValue(spans[0].Attributes(), AttrErrorKind)
	require.True(t, ok)
	assert.Equal(t, "handler_failure", v.AsString())
	require.NotEmpty(t, spans[0].Events(), "error recorded as span event")
}

func TestTracingMiddleware_NoSpanForInvalidPayload(t *testing.T) {
	recorder, tp := setupTracer(t)
	reg := action.NewRegistry()
	h := action.Define(action.Spec[greetPayload]{Name: "greet"}, func(context.Context, *greetPayload) (any, error) { return nil, nil })
	require.NoError(t, reg.Register(h))
	mgr := action.NewManager(reg, action.WithMiddleware(NewTracingMiddleware(MiddlewareConfig{Tracer: tp.Tracer("test")})))

	_, err := mgr.Execute(context.Background(), "greet", map[string]any{"name": 12})
	require.ErrorIs(t, err, action.ErrCoercion)
	assert.Empty(t, recorder.Ended())
}

func TestRejectionRecorder_RecordsKind(t *testing.T) {
	recorder, tp := setupTracer(t)
	cfg := MiddlewareConfig{Tracer: tp.Tracer("test")}
	reg := action.NewRegistry()
	h := action.Define(action.Spec[greetPayload]{Name: "greet"}, func(context.Context, *greetPayload) (any, error) { return nil, nil })
	require.NoError(t, reg.Register(h))
	mgr := action.NewManager(reg,
		action.WithMiddleware(NewTracingMiddleware(cfg)),
		action.WithRejectHooks(NewRejectionRecorder(cfg)),
	)

	_, err := mgr.Execute(context.Background(), "greet", map[string]any{"name": 12})
	require.ErrorIs(t, err, action.ErrCoercion)
	_, err = mgr.Execute(context.Background(), "missing-action", map[string]any{})
	require.ErrorIs(t, err, action.ErrNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "action.reject.greet", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	v, ok := attrValue(spans[0].Attributes(), AttrErrorKind)
	require.True(t, ok)
	assert.Equal(t, "coercion", v.AsString())

	assert.Equal(t, "action.reject.missing-action", spans[1].Name())
	v, ok = attrValue(spans[1].Attributes(), AttrErrorKind)
	require.True(t, ok)
	assert.Equal(t, "not_found", v.AsString())
}

func TestRejectionRecorder_NilTracerIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRejectionRecorder(MiddlewareConfig{})(context.Background(), action.Invocation{Action: "greet"}, action.ErrNotFound)
	})
}
