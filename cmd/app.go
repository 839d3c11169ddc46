package cmd

import (
	"context"
	"fmt"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/actions"
	"github.com/malikkrehic/action/internal/cachemanager"
	"github.com/malikkrehic/action/internal/config"
	"github.com/malikkrehic/action/internal/infrastructure/sqlite"
	"github.com/malikkrehic/action/internal/log"
	"github.com/malikkrehic/action/internal/pubsub"
	"github.com/malikkrehic/action/internal/tracing"
)

// app holds everything a command needs to run actions.
type app struct {
	manager *action.Manager
	events  *pubsub.Broker[action.Event]
	db      *sqlite.DB
	tracer  *tracing.Provider
	// idempotency is nil when idempotency is disabled.
	idempotency *cachemanager.InMemoryCacheManager[string, any]
}

// newApp opens the database, registers the built-in actions and assembles
// the middleware chain described by c.
func newApp(c config.Config) (*app, error) {
	db, err := sqlite.NewDB(c.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	reg := action.NewRegistry()
	if err := actions.RegisterAll(reg, actions.Deps{Users: db.Users(), Chats: db.Chats()}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registering actions: %w", err)
	}

	tp, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating tracing provider: %w", err)
	}

	// logging(tracing(idempotency(handle)))
	traceCfg := tracing.MiddlewareConfig{Tracer: tp.Tracer()}
	middleware := []action.Middleware{
		action.NewLoggingMiddleware(),
		tracing.NewTracingMiddleware(traceCfg),
	}
	var cache *cachemanager.InMemoryCacheManager[string, any]
	if c.Idempotency.Enabled {
		cache = cachemanager.NewInMemoryCacheManager[string, any]("idempotency", c.Idempotency.TTL, cachemanager.DefaultCleanupInterval)
		middleware = append(middleware, action.NewIdempotencyMiddleware(cache, c.Idempotency.TTL))
	}

	events := pubsub.NewBroker[action.Event]()
	mgr := action.NewManager(reg,
		action.WithMiddleware(middleware...),
		action.WithRejectHooks(action.LogRejection, tracing.NewRejectionRecorder(traceCfg)),
		action.WithEventBus(events),
	)

	log.Debug(log.CatRegistry, "actions registered", "names", reg.Names())
	return &app{manager: mgr, events: events, db: db, tracer: tp, idempotency: cache}, nil
}

// Close flushes traces and releases the database.
func (a *app) Close(ctx context.Context) error {
	a.events.Close()
	if a.idempotency != nil {
		log.Debug(log.CatCache, "dropping idempotency cache", "entries", a.idempotency.Len())
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTracing, "Error shutting down tracing", err)
	}
	return a.db.Close()
}
