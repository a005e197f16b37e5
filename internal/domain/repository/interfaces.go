// Package repository defines all the repository interfaces used by domain services
// Following the dependency inversion principle, domain logic depends on these interfaces,
// and infrastructure implementations provide concrete implementations
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rahulNinjatech/fever/internal/domain/model"
)

// ErrCacheMiss is returned by EventCache.Get when no entry exists for the key.
// It keeps driver-specific sentinel values (redis.Nil) out of the domain.
var ErrCacheMiss = errors.New("cache miss")

// EventStore defines the interface for durable event storage.
// Implementations must enforce uniqueness of the (base_event_id, event_id) pair;
// that constraint plus diff-before-insert is the whole deduplication story.
type EventStore interface {
	// FindExisting returns the stored events whose identity pair appears in
	// candidates. Implementations must resolve the whole set in a single bulk
	// query, not one round trip per pair.
	FindExisting(ctx context.Context, candidates []model.CandidateEvent) ([]model.Event, error)

	// InsertAll persists the given candidates in one atomic transaction:
	// either every row commits or none do. An empty slice is a no-op.
	InsertAll(ctx context.Context, candidates []model.CandidateEvent) error

	// ListBetween returns all events whose start_time falls within
	// [startsAt, endsAt], both bounds inclusive, ordered by start_time.
	ListBetween(ctx context.Context, startsAt, endsAt time.Time) ([]model.Event, error)
}

// EventCache defines the interface for the disposable read-path cache.
// Values are opaque serialized payloads; the cache holds no business logic
// and its contents are always reconstructable from the store.
type EventCache interface {
	// Get returns the payload stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores payload under key with the given TTL. A zero TTL means the
	// entry never expires.
	Set(ctx context.Context, key string, payload string, ttl time.Duration) error
}
