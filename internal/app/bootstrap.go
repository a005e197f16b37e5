package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rahulNinjatech/fever/config"
	"github.com/rahulNinjatech/fever/internal/domain/repository"
	"github.com/rahulNinjatech/fever/internal/domain/service"
	redisrepo "github.com/rahulNinjatech/fever/internal/infrastructure/cache"
	"github.com/rahulNinjatech/fever/internal/infrastructure/feed"
	pgrepo "github.com/rahulNinjatech/fever/internal/infrastructure/storage"
)

// AppContext holds all app dependencies. Store and cache handles are injected
// into the query service and the ingestion processor here; nothing reaches for
// process-wide singletons.
type AppContext struct {
	Config       *config.Config
	QueryService *service.EventQueryService
	Ingestor     *IngestProcessor

	store *pgrepo.PostgresRepository
	cache *redisrepo.RedisRepository
	log   *slog.Logger
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg, log: log}

	// Durable event store (PostgreSQL); ensures the events table exists.
	store, err := pgrepo.NewPostgresRepository(pgrepo.PostgresConfig{
		DSN:          cfg.PostgresDSN,
		Timeout:      cfg.PostgresTimeout,
		MaxOpenConns: cfg.PostgresMaxOpenConns,
		MaxIdleConns: cfg.PostgresMaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
	}
	app.store = store
	log.Info("Postgres event store initialized")

	// Cache implementation (Redis)
	var eventCache repository.EventCache
	redisRepo := redisrepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	eventCache = redisRepo
	app.cache = redisRepo
	log.Info("Redis cache initialized")

	// Cache-aside read path
	app.QueryService = service.NewEventQueryService(store, eventCache, cfg.CacheTTL, log)
	log.Info("Query service initialized", "cache_ttl", cfg.CacheTTL)

	// Ingestion pipeline: provider client -> parser -> store
	source := feed.NewHTTPClient(cfg.ProviderURL, cfg.FetchTimeout, log)
	parser := service.NewFeedParser(log)
	app.Ingestor = NewIngestProcessor(source, parser, store, cfg.FetchInterval, cfg.MisfireGrace, log)
	log.Info("Ingestion pipeline initialized", "interval", cfg.FetchInterval, "misfire_grace", cfg.MisfireGrace)

	return app, nil
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.cache != nil {
		a.log.Info("Closing Redis client...")
		if err := a.cache.Close(); err != nil {
			a.log.Error("Error closing Redis client", "error", err)
		}
	}

	if a.store != nil {
		a.log.Info("Closing Postgres pool...")
		if err := a.store.Close(); err != nil {
			a.log.Error("Error closing Postgres pool", "error", err)
		}
	}

	a.log.Info("All resources cleaned up")
}
