package main

import (
	"context"
	"fmt"

	"namecheck/internal/ownercheck/providers/session"
	"namecheck/internal/ownercheck/store"
	"namecheck/internal/platform/config"
	"namecheck/internal/platform/postgres"
	"namecheck/internal/platform/redis"
)

// openSessionStore returns the configured session backend and a func that
// releases its connections.
func openSessionStore(ctx context.Context, cfg config.Server) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.Session.Store {
	case config.StoreMemory:
		return store.NewInMemoryStore(), noop, nil

	case config.StoreFile:
		fs, err := store.NewFileStore(cfg.Session.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client.Client, store.WithTTL(cfg.Session.RedisTTL)),
			func() { _ = client.Close() }, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		ps := store.NewPostgresStore(db)
		if err := ps.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate session store: %w", err)
		}
		return ps, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
