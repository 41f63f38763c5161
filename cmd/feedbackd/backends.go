package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deadwick/feedback-service/internal/api/handler"
	"github.com/deadwick/feedback-service/internal/api/middleware"
	"github.com/deadwick/feedback-service/internal/core/ports"
	"github.com/deadwick/feedback-service/internal/core/session"
	"github.com/deadwick/feedback-service/internal/infrastructure/blob"
	"github.com/deadwick/feedback-service/internal/infrastructure/db/mongo"
	"github.com/deadwick/feedback-service/internal/infrastructure/db/postgres"
	"github.com/deadwick/feedback-service/internal/infrastructure/db/redis"
	"github.com/deadwick/feedback-service/internal/pkg/config"
)

// backends are the opened external collaborators.
type backends struct {
	users    ports.UserRepository
	feedback ports.FeedbackRepository
	audit    ports.AuditRepository
	blobs    ports.BlobStorage
	sessions middleware.SessionOpener
	health   map[string]handler.PingFunc
	mediaDir string
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{health: map[string]handler.PingFunc{}}

	var err error
	switch cfg.StoreBackend {
	case config.StorePostgres:
		err = b.openPostgres(ctx, cfg)
	default:
		err = b.openMongo(ctx, cfg)
	}
	if err != nil {
		b.close()
		return nil, err
	}

	if err := b.openRedis(ctx, cfg); err != nil {
		b.close()
		return nil, err
	}

	if err := b.openBlobs(cfg); err != nil {
		b.close()
		return nil, err
	}
	return b, nil
}

func (b *backends) openMongo(ctx context.Context, cfg *config.Config) error {
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })

	users := mongo.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo user indexes: %w", err)
	}
	feedback := mongo.NewFeedbackRepository(db)
	if err := feedback.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo feedback indexes: %w", err)
	}

	b.users = users
	b.feedback = feedback
	b.audit = mongo.NewEventRepository(db)
	b.health["mongodb"] = mongo.Pinger(client)
	return nil
}

func (b *backends) openPostgres(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() { _ = db.Close() })

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	b.users = postgres.NewUserRepository(db)
	b.feedback = postgres.NewFeedbackRepository(db)
	b.audit = postgres.NewEventRepository(db)
	b.health["postgres"] = pingSQL(db)
	return nil
}

func (b *backends) openRedis(ctx context.Context, cfg *config.Config) error {
	client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() { _ = client.Close() })

	store := redis.NewSessionStore(client, cfg.Redis.SessionTTL)
	b.sessions = func(sid string) session.Persister { return store.For(sid) }
	b.health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return nil
}

func (b *backends) openBlobs(cfg *config.Config) error {
	switch cfg.Blob.Backend {
	case config.BlobSupabase:
		b.blobs = blob.NewSupabaseStore(cfg.Blob.SupabaseURL, cfg.Blob.SupabaseServiceKey, cfg.Blob.SupabaseBucket, nil)
	default:
		store, err := blob.NewLocalStore(cfg.Blob.MediaDir, cfg.Blob.MediaBaseURL)
		if err != nil {
			return err
		}
		b.blobs = store
		b.mediaDir = store.Dir()
	}
	return nil
}

func pingSQL(db *sql.DB) handler.PingFunc {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
