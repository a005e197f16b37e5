package useCases

import (
	"context"
	"time"

	"github.com/rahulNinjatech/fever/internal/domain/model"
)

// EventQuerier defines the interface for the cache-accelerated read path
// consumed by the HTTP layer.
type EventQuerier interface {
	Query(ctx context.Context, startsAt, endsAt time.Time) *model.StandardResponse
}

// FeedSource defines an interface for fetching one raw snapshot of the
// provider feed. Implementations report transport-level failures; they never
// retry on their own.
type FeedSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}
