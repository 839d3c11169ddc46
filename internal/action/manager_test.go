package action

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikkrehic/action/internal/cachemanager"
	"github.com/malikkrehic/action/internal/pubsub"
	"github.com/malikkrehic/action/internal/validation"
)

type counterPayload struct {
	Count *int   `json:"count"`
	Label string `json:"label"`
}

func counterSchema() *validation.Schema[counterPayload] {
	return validation.NewSchema[counterPayload]().
		Field("count", func(p *counterPayload) any { return p.Count }, validation.Required(), validation.Min(1)).
		Field("label", func(p *counterPayload) any { return p.Label }, validation.In("a", "b"))
}

func newEchoManager(t *testing.T, calls *int, opts ...Option) *Manager {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoHandler(calls)))
	return NewManager(reg, opts...)
}

func TestManager_EchoScenario(t *testing.T) {
	var calls int
	mgr := newEchoManager(t, &calls)
	ctx := context.Background()

	result, err := mgr.Execute(ctx, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "hi"}, result)
	assert.Equal(t, 1, calls)

	_, err = mgr.Execute(ctx, "echo", map[string]any{})
	require.ErrorIs(t, err, ErrValidation)
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, validation.Violations{"text": {"required"}}, ae.Fields)
	assert.Equal(t, 1, calls, "handler must not run on invalid payload")

	_, err = mgr.Execute(ctx, "missing-action", map[string]any{})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "missing-action", ae.Action)
}

func TestManager_EchoTooLong(t *testing.T) {
	mgr := newEchoManager(t, nil)

	_, err := mgr.Execute(context.Background(), "echo", map[string]any{"text": "hello world!"})
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindValidation, ae.Kind)
	assert.Equal(t, []string{"max_length:10"}, ae.Fields["text"])
}

func TestManager_FluentEqualsDirect(t *testing.T) {
	mgr := newEchoManager(t, nil)
	ctx := context.Background()

	b, err := mgr.Make("echo")
	require.NoError(t, err)
	fluent, err := b.With(map[string]any{"text": "same"}).Execute(ctx)
	require.NoError(t, err)

	direct, err := mgr.Execute(ctx, "echo", map[string]any{"text": "same"})
	require.NoError(t, err)
	assert.Equal(t, fluent, direct)
}

func TestManager_MakeAndMetadataUnknown(t *testing.T) {
	mgr := newEchoManager(t, nil)

	_, err := mgr.Make("nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = mgr.Metadata("nope")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestManager_Introspection(t *testing.T) {
	mgr := newEchoManager(t, nil)

	assert.True(t, mgr.Has("echo"))
	assert.False(t, mgr.Has("other"))
	assert.Equal(t, []string{"echo"}, mgr.Names())
	assert.Len(t, mgr.All(), 1)

	meta, err := mgr.Metadata("echo")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Name: "echo", Description: "Echoes text back", PayloadType: "action.echoPayload"}, meta)
	assert.Equal(t, []Descriptor{meta}, mgr.Descriptors())
	assert.Same(t, mgr.Registry(), mgr.Registry())
}

func TestBuilder_MissingData(t *testing.T) {
	var calls int
	b := NewBuilder(echoHandler(&calls))

	_, err := b.Execute(context.Background())
	require.ErrorIs(t, err, ErrMissingData)
	assert.Equal(t, KindMissingData, KindOf(err))
	assert.Zero(t, calls)

	_, err = b.With(map[string]any{"text": "x"}).WithPayload(nil).Execute(context.Background())
	require.ErrorIs(t, err, ErrMissingData, "nil payload clears staged data")
}

func TestBuilder_WithOverwrites(t *testing.T) {
	b := NewBuilder(echoHandler(nil)).
		With(map[string]any{"text": "first"}).
		With(map[string]any{"text": "second"})

	result, err := b.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "second"}, result)
}

func TestBuilder_NilMapIsEmptyPayload(t *testing.T) {
	_, err := NewBuilder(echoHandler(nil)).With(nil).Execute(context.Background())
	require.ErrorIs(t, err, ErrValidation)
}

func TestBuilder_Metadata(t *testing.T) {
	b := NewBuilder(echoHandler(nil))
	assert.Equal(t, "echo", b.Metadata().Name)
	assert.Equal(t, "action.echoPayload", b.PayloadType())
}

func TestBuilder_TypedPayloadIsValidated(t *testing.T) {
	var calls int
	h := echoHandler(&calls)
	ctx := context.Background()

	_, err := NewBuilder(h).WithPayload(echoPayload{Text: "far too long text"}).Execute(ctx)
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, calls)

	result, err := NewBuilder(h).WithPayload(&echoPayload{Text: "ok"}).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "ok"}, result)

	_, err = NewBuilder(h).WithPayload((*echoPayload)(nil)).Execute(ctx)
	require.ErrorIs(t, err, ErrCoercion)
}

func TestBuilder_TypedPayloadWrongType(t *testing.T) {
	_, err := NewBuilder(echoHandler(nil)).WithPayload(counterPayload{}).Execute(context.Background())
	require.ErrorIs(t, err, ErrCoercion)
	assert.Contains(t, err.Error(), "expected payload action.echoPayload")
}

func TestBuilder_TypedPayloadIsCopied(t *testing.T) {
	var seen *echoPayload
	h := Define(Spec[echoPayload]{Name: "capture"}, func(_ context.Context, p *echoPayload) (any, error) {
		seen = p
		p.Text = "mutated"
		return nil, nil
	})
	original := &echoPayload{Text: "orig"}

	_, err := NewBuilder(h).WithPayload(original).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "orig", original.Text)
	assert.NotSame(t, original, seen)
}

func TestBuilder_CoercionFailure(t *testing.T) {
	h := Define(Spec[counterPayload]{Name: "counter", Schema: counterSchema()}, func(context.Context, *counterPayload) (any, error) {
		return "ran", nil
	})

	_, err := NewBuilder(h).With(map[string]any{"count": "three"}).Execute(context.Background())
	require.ErrorIs(t, err, ErrCoercion)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestBuilder_CollectsAllViolations(t *testing.T) {
	h := Define(Spec[counterPayload]{Name: "counter", Schema: counterSchema()}, func(context.Context, *counterPayload) (any, error) {
		return "ran", nil
	})

	_, err := NewBuilder(h).With(map[string]any{"label": "z"}).Execute(context.Background())
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, validation.Violations{
		"count": {"required"},
		"label": {"in:a,b"},
	}, ae.Fields)
}

func TestBuilder_LookupFailureIsHandlerFailure(t *testing.T) {
	failing := validation.LookupFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("store unavailable")
	})
	h := Define(Spec[echoPayload]{
		Name: "unique-echo",
		Schema: validation.NewSchema[echoPayload]().
			Field("text", func(p *echoPayload) any { return p.Text }, validation.Unique(failing)),
	}, func(context.Context, *echoPayload) (any, error) { return nil, nil })

	_, err := NewBuilder(h).With(map[string]any{"text": "x"}).Execute(context.Background())
	require.ErrorIs(t, err, ErrHandlerFailure)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestBuilder_Unimplemented(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Define[echoPayload](Spec[echoPayload]{Name: "todo"}, nil)))

	_, err := NewManager(reg).Execute(context.Background(), "todo", map[string]any{"text": "x"})
	require.ErrorIs(t, err, ErrUnimplemented)
	assert.Equal(t, KindUnimplemented, KindOf(err))
}

func TestBuilder_HandlerErrorsAreWrapped(t *testing.T) {
	boom := errors.New("downstream exploded")
	h := Define(Spec[echoPayload]{Name: "failing"}, func(context.Context, *echoPayload) (any, error) {
		return nil, boom
	})

	_, err := NewBuilder(h).With(map[string]any{}).Execute(context.Background())
	require.ErrorIs(t, err, ErrHandlerFailure)
	require.ErrorIs(t, err, boom)

	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "failing", ae.Action)
	assert.Equal(t, "downstream exploded", ae.Message)
}

func TestBuilder_HandlerTypedErrorPassesThrough(t *testing.T) {
	h := Define(Spec[echoPayload]{Name: "typed"}, func(context.Context, *echoPayload) (any, error) {
		return nil, &Error{Kind: KindValidation, Fields: validation.Violations{"text": {"unique"}}}
	})

	_, err := NewBuilder(h).With(map[string]any{}).Execute(context.Background())
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindValidation, ae.Kind)
	assert.Equal(t, "typed", ae.Action)
	assert.Equal(t, []string{"unique"}, ae.Fields["text"])
}

func TestBuilder_SharedTypedErrorIsNotModified(t *testing.T) {
	shared := &Error{Kind: KindValidation}
	fail := func(context.Context, *echoPayload) (any, error) { return nil, shared }
	reg := NewRegistry()
	reg.MustRegister(
		Define(Spec[echoPayload]{Name: "one"}, fail),
		Define(Spec[echoPayload]{Name: "two"}, fail),
	)
	m := NewManager(reg)

	_, err := m.Execute(context.Background(), "one", map[string]any{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "one: validation failed", err.Error())

	_, err = m.Execute(context.Background(), "two", map[string]any{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "two: validation failed", err.Error())

	assert.Empty(t, shared.Action)
}

func TestBuilder_PanicIsRecovered(t *testing.T) {
	h := Define(Spec[echoPayload]{Name: "panicky"}, func(context.Context, *echoPayload) (any, error) {
		panic("kaboom")
	})

	var result any
	var err error
	require.NotPanics(t, func() {
		result, err = NewBuilder(h).With(map[string]any{}).Execute(context.Background())
	})
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrHandlerFailure)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestBuilder_ContextReachesHandler(t *testing.T) {
	type ctxKey struct{}
	h := Define(Spec[echoPayload]{Name: "ctx"}, func(ctx context.Context, _ *echoPayload) (any, error) {
		return ctx.Value(ctxKey{}), nil
	})
	ctx := context.WithValue(context.Background(), ctxKey{}, "threaded")

	result, err := NewBuilder(h).With(map[string]any{}).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "threaded", result)
}

func TestManager_MiddlewareOrderAndScope(t *testing.T) {
	var order []string
	record := func(name string) Middleware {
		return func(next Invoker) Invoker {
			return InvokerFunc(func(ctx context.Context, inv Invocation) (any, error) {
				order = append(order, name+":before")
				res, err := next.Invoke(ctx, inv)
				order = append(order, name+":after")
				return res, err
			})
		}
	}
	mgr := newEchoManager(t, nil, WithMiddleware(record("outer"), record("inner")), WithMiddleware(NewLoggingMiddleware()))

	_, err := mgr.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, order)

	order = nil
	_, err = mgr.Execute(context.Background(), "echo", map[string]any{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, order, "middleware only wraps the invoke step")
}

func TestManager_MiddlewareSeesValidatedPayload(t *testing.T) {
	var got Invocation
	capture := func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, inv Invocation) (any, error) {
			got = inv
			return next.Invoke(ctx, inv)
		})
	}
	mgr := newEchoManager(t, nil, WithMiddleware(capture))

	_, err := mgr.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Action)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, &echoPayload{Text: "hi"}, got.Payload)
}

func TestManager_IdempotencyReplay(t *testing.T) {
	var calls int
	cache := cachemanager.NewInMemoryCacheManager[string, any]("idempotency", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	mgr := newEchoManager(t, &calls, WithMiddleware(NewIdempotencyMiddleware(cache, time.Minute)))

	ctx := WithIdempotencyKey(context.Background(), "req-1")
	first, err := mgr.Execute(ctx, "echo", map[string]any{"text": "one"})
	require.NoError(t, err)
	second, err := mgr.Execute(ctx, "echo", map[string]any{"text": "one"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = mgr.Execute(WithIdempotencyKey(context.Background(), "req-2"), "echo", map[string]any{"text": "two"})
	require.NoError(t, err)
	_, err = mgr.Execute(context.Background(), "echo", map[string]any{"text": "two"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestManager_IdempotencyDoesNotRememberFailures(t *testing.T) {
	var calls int
	h := Define(Spec[echoPayload]{Name: "flaky"}, func(context.Context, *echoPayload) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})
	reg := NewRegistry()
	reg.MustRegister(h)
	cache := cachemanager.NewInMemoryCacheManager[string, any]("idempotency", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	mgr := NewManager(reg, WithMiddleware(NewIdempotencyMiddleware(cache, 0)))
	ctx := WithIdempotencyKey(context.Background(), "k")

	_, err := mgr.Execute(ctx, "flaky", map[string]any{})
	require.ErrorIs(t, err, ErrHandlerFailure)

	result, err := mgr.Execute(ctx, "flaky", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestManager_IdempotencyRejectsDifferentPayload(t *testing.T) {
	var calls int
	cache := cachemanager.NewInMemoryCacheManager[string, any]("idempotency", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	mgr := newEchoManager(t, &calls, WithMiddleware(NewIdempotencyMiddleware(cache, time.Minute)))
	ctx := WithIdempotencyKey(context.Background(), "req-1")

	_, err := mgr.Execute(ctx, "echo", map[string]any{"text": "a"})
	require.NoError(t, err)

	result, err := mgr.Execute(ctx, "echo", map[string]any{"text": "different"})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Nil(t, result)
	assert.Equal(t, 1, calls)
}

func TestManager_IdempotencyConcurrentCallsRunOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	h := Define(Spec[echoPayload]{Name: "slow"}, func(_ context.Context, p *echoPayload) (any, error) {
		calls.Add(1)
		<-release
		return map[string]any{"message": p.Text}, nil
	})
	reg := NewRegistry()
	reg.MustRegister(h)
	cache := cachemanager.NewInMemoryCacheManager[string, any]("idempotency", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	mgr := NewManager(reg, WithMiddleware(NewIdempotencyMiddleware(cache, time.Minute)))
	ctx := WithIdempotencyKey(context.Background(), "k1")

	const n = 5
	results := make([]any, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = mgr.Execute(ctx, "slow", map[string]any{"text": "a"})
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	// give the other goroutines time to queue behind the first
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, map[string]any{"message": "a"}, results[i])
	}
}

func TestManager_RejectHooks(t *testing.T) {
	type rejection struct {
		action string
		kind   Kind
	}
	var got []rejection
	hook := func(_ context.Context, inv Invocation, err error) {
		assert.Nil(t, inv.Payload)
		got = append(got, rejection{inv.Action, KindOf(err)})
	}
	var calls int
	mgr := newEchoManager(t, &calls, WithRejectHooks(hook, LogRejection))

	_, err := mgr.Execute(context.Background(), "missing-action", map[string]any{})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = mgr.Execute(context.Background(), "echo", map[string]any{})
	require.ErrorIs(t, err, ErrValidation)
	_, err = mgr.Execute(context.Background(), "echo", map[string]any{"text": []int{1}})
	require.ErrorIs(t, err, ErrCoercion)
	_, err = mgr.ExecutePayload(context.Background(), "echo", nil)
	require.ErrorIs(t, err, ErrMissingData)
	_, err = mgr.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)

	assert.Equal(t, []rejection{
		{"missing-action", KindNotFound},
		{"echo", KindValidation},
		{"echo", KindCoercion},
		{"echo", KindMissingData},
	}, got)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyKeyFrom(t *testing.T) {
	_, ok := IdempotencyKeyFrom(context.Background())
	assert.False(t, ok)

	_, ok = IdempotencyKeyFrom(WithIdempotencyKey(context.Background(), ""))
	assert.False(t, ok)

	key, ok := IdempotencyKeyFrom(WithIdempotencyKey(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", key)
}

func TestManager_PublishesEvents(t *testing.T) {
	bus := pubsub.NewBroker[Event]()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := bus.Subscribe(ctx)

	mgr := newEchoManager(t, nil, WithEventBus(bus))

	_, err := mgr.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	_, err = mgr.Execute(context.Background(), "echo", map[string]any{})
	require.Error(t, err)

	ok := <-events
	assert.Equal(t, pubsub.SucceededEvent, ok.Type)
	assert.Equal(t, "echo", ok.Payload.Action)
	assert.NotEmpty(t, ok.Payload.InvocationID)
	assert.Empty(t, ok.Payload.Kind)

	failed := <-events
	assert.Equal(t, pubsub.FailedEvent, failed.Type)
	assert.Equal(t, KindValidation, failed.Payload.Kind)
	assert.NotEmpty(t, failed.Payload.Error)
}

func TestManager_ConcurrentExecuteAndRegister(t *testing.T) {
	mgr := newEchoManager(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := mgr.Execute(ctx, "echo", map[string]any{"text": "hi"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_ = mgr.Registry().Register(namedHandler(string(rune('a' + i))))
			_ = mgr.Names()
		}()
	}
	wg.Wait()
	assert.Equal(t, 21, mgr.Registry().Len())
}
