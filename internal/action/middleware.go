package action

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/malikkrehic/action/internal/cachemanager"
	"github.com/malikkrehic/action/internal/log"
)

// Invocation describes one call of a handler with a validated payload.
type Invocation struct {
	ID        string
	Action    string
	Payload   any
	StartedAt time.Time
}

func newInvocation(name string, payload any) Invocation {
	return Invocation{
		ID:        uuid.NewString(),
		Action:    name,
		Payload:   payload,
		StartedAt: time.Now(),
	}
}

// Invoker runs an invocation. The innermost Invoker calls Handler.Handle.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) (any, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, inv Invocation) (any, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, inv Invocation) (any, error) {
	return f(ctx, inv)
}

// Middleware wraps an Invoker. Middleware only sees payloads that already
// passed validation.
type Middleware func(Invoker) Invoker

// ChainMiddleware applies middlewares to an invoker in reverse order.
// The first middleware in the list will be the outermost wrapper.
// For example: ChainMiddleware(inv, logging, tracing, idempotency)
// Results in: logging(tracing(idempotency(inv)))
func ChainMiddleware(inv Invoker, middlewares ...Middleware) Invoker {
	for i := len(middlewares) - 1; i >= 0; i-- {
		inv = middlewares[i](inv)
	}
	return inv
}

// ===========================================================================
// Logging Middleware
// ===========================================================================

// NewLoggingMiddleware logs every invocation with its outcome and duration.
func NewLoggingMiddleware() Middleware {
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, inv Invocation) (any, error) {
			start := time.Now()
			result, err := next.Invoke(ctx, inv)
			duration := time.Since(start)

			if err != nil {
				log.Error(log.CatAction, "action failed",
					"invocation_id", inv.ID,
					"action", inv.Action,
					"kind", string(KindOf(err)),
					"duration", duration,
					"error", err.Error(),
				)
			} else {
				log.Debug(log.CatAction, "action completed",
					"invocation_id", inv.ID,
					"action", inv.Action,
					"duration", duration,
				)
			}
			return result, err
		})
	}
}

// ===========================================================================
// Rejections
// ===========================================================================

// RejectFunc observes an invocation that failed before the middleware chain
// ran. inv.Payload is nil.
type RejectFunc func(ctx context.Context, inv Invocation, err error)

func notifyRejected(ctx context.Context, fns []RejectFunc, inv Invocation, err error) {
	for _, fn := range fns {
		fn(ctx, inv, err)
	}
}

// LogRejection logs a rejected invocation with its error kind.
func LogRejection(_ context.Context, inv Invocation, err error) {
	log.Warn(log.CatAction, "action rejected",
		"invocation_id", inv.ID,
		"action", inv.Action,
		"kind", string(KindOf(err)),
		"error", err.Error(),
	)
}

// ===========================================================================
// Idempotency Middleware
// ===========================================================================

// DefaultIdempotencyTTL is how long a successful result is replayed.
const DefaultIdempotencyTTL = 10 * time.Minute

type idempotencyKey struct{}

// WithIdempotencyKey attaches a caller-supplied idempotency key to ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKeyFrom returns the idempotency key attached to ctx, if any.
func IdempotencyKeyFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKey{}).(string)
	return key, ok && key != ""
}

// idempotentResult is what the idempotency cache stores per key.
type idempotentResult struct {
	fingerprint string
	result      any
}

// NewIdempotencyMiddleware replays the result of the first successful
// invocation for every later invocation of the same action carrying the same
// idempotency key, for ttl. Concurrent invocations sharing a key run the
// handler once. Reusing a key with a different payload fails with
// KindConflict. Failed invocations are not remembered. Invocations without a
// key pass straight through.
func NewIdempotencyMiddleware(cache cachemanager.CacheManager[string, any], ttl time.Duration) Middleware {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	var inflight singleflight.Group
	return func(next Invoker) Invoker {
		rtc := cachemanager.NewReadThroughCache[string, any, Invocation](
			cache,
			func(ctx context.Context, inv Invocation) (any, error) {
				result, err := next.Invoke(ctx, inv)
				if err != nil {
					return nil, err
				}
				return idempotentResult{fingerprint: payloadFingerprint(inv), result: result}, nil
			},
			false,
		)
		return InvokerFunc(func(ctx context.Context, inv Invocation) (any, error) {
			key, ok := IdempotencyKeyFrom(ctx)
			if !ok {
				return next.Invoke(ctx, inv)
			}
			cacheKey := inv.Action + ":" + key
			fingerprint := payloadFingerprint(inv)

			var hit bool
			v, err, shared := inflight.Do(cacheKey, func() (any, error) {
				v, cached, err := rtc.Get(ctx, cacheKey, inv, ttl)
				hit = cached
				if err != nil {
					return idempotentResult{fingerprint: fingerprint}, err
				}
				return v, nil
			})
			entry, _ := v.(idempotentResult)
			if entry.fingerprint != fingerprint {
				log.Warn(log.CatAction, "idempotency key reused with a different payload",
					"invocation_id", inv.ID,
					"action", inv.Action,
					"idempotency_key", key,
				)
				return nil, newError(KindConflict, inv.Action, "", ErrIdempotencyConflict)
			}
			if err != nil {
				return nil, err
			}
			if hit || shared {
				log.Debug(log.CatAction, "replayed idempotent result",
					"invocation_id", inv.ID,
					"action", inv.Action,
					"idempotency_key", key,
				)
			}
			return entry.result, nil
		})
	}
}

// payloadFingerprint hashes the action name and validated payload.
func payloadFingerprint(inv Invocation) string {
	h := sha256.New()
	h.Write([]byte(inv.Action))
	h.Write([]byte{0})
	data, err := json.Marshal(inv.Payload)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", inv.Payload))
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
