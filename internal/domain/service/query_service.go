package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/rahulNinjatech/fever/internal/domain/model"
	"github.com/rahulNinjatech/fever/internal/domain/repository"
	"github.com/rahulNinjatech/fever/internal/domain/useCases"
	"github.com/rahulNinjatech/fever/internal/metrics"
)

const (
	codeBadRequest    = "400"
	codeInternalError = "500"

	msgInvalidRange  = "End date must be greater than start date"
	msgInternalError = "Internal server error"
)

// EventQueryService serves date-range queries over stored events through a
// cache-aside read path: cache first, store on miss, repopulate the cache with
// non-empty results. It never talks to the ingestion side; it only depends on
// eventual store contents.
type EventQueryService struct {
	store repository.EventStore
	cache repository.EventCache
	ttl   time.Duration
	log   *slog.Logger
}

// NewEventQueryService creates a query service with the provided store and
// cache implementations. ttl bounds how stale a cached range can get relative
// to newly ingested rows; there is no push invalidation.
func NewEventQueryService(store repository.EventStore, cache repository.EventCache, ttl time.Duration, log *slog.Logger) *EventQueryService {
	return &EventQueryService{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Ensure interface compliance
var _ useCases.EventQuerier = (*EventQueryService)(nil)

// Query validates the range and answers it cache-aside. Validation happens
// before any I/O. Failures past validation are logged and converted to a
// generic internal-error envelope; no cause detail crosses the boundary.
func (s *EventQueryService) Query(ctx context.Context, startsAt, endsAt time.Time) *model.StandardResponse {
	if !endsAt.After(startsAt) {
		s.log.Warn("rejected query with inverted range", "starts_at", startsAt, "ends_at", endsAt)
		return model.NewErrorResponse(codeBadRequest, msgInvalidRange)
	}

	key := model.RangeCacheKey(startsAt, endsAt)

	payload, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var events []model.Event
		if err := json.Unmarshal([]byte(payload), &events); err == nil {
			metrics.CacheHitsTotal.Inc()
			s.log.Info("cache hit", "key", key, "events", len(events))
			return model.NewDataResponse(events)
		}
		// Undecodable entry: fall through to the store and overwrite it.
		s.log.Warn("discarding undecodable cache entry", "key", key)
	case errors.Is(err, repository.ErrCacheMiss):
		s.log.Info("cache miss, querying store", "key", key)
	default:
		s.log.Error("cache read failed", "key", key, "error", err)
		return model.NewErrorResponse(codeInternalError, msgInternalError)
	}
	metrics.CacheMissesTotal.Inc()

	events, err := s.store.ListBetween(ctx, startsAt, endsAt)
	if err != nil {
		s.log.Error("store range query failed", "key", key, "error", err)
		return model.NewErrorResponse(codeInternalError, msgInternalError)
	}

	// Empty results are never cached: a few extra store round trips beat
	// having to invalidate negative entries once ingestion catches up.
	if len(events) > 0 {
		if err := s.repopulate(ctx, key, events); err != nil {
			s.log.Error("cache repopulation failed", "key", key, "error", err)
			return model.NewErrorResponse(codeInternalError, msgInternalError)
		}
	} else {
		s.log.Info("no events found for range", "key", key)
	}

	return model.NewDataResponse(events)
}

func (s *EventQueryService) repopulate(ctx context.Context, key string, events []model.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, string(data), s.ttl)
}
