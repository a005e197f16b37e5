package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CandidateEvent is a parsed, not-yet-persisted event produced by one feed pass.
// Prices are exact decimals derived from the zone prices of the source element.
type CandidateEvent struct {
	BaseEventID int64
	EventID     int64
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	MinPrice    decimal.Decimal
	MaxPrice    decimal.Decimal
}

// Event is a durable event row. The (base_event_id, event_id) pair is unique
// across all rows and is the sole deduplication key: rows are inserted once and
// never updated by later feed revisions.
type Event struct {
	BaseEventID int64           `db:"base_event_id" json:"base_event_id"`
	EventID     int64           `db:"event_id" json:"event_id"`
	Title       string          `db:"title" json:"title"`
	StartTime   time.Time       `db:"start_time" json:"start_time"`
	EndTime     time.Time       `db:"end_time" json:"end_time"`
	MinPrice    decimal.Decimal `db:"min_price" json:"min_price"`
	MaxPrice    decimal.Decimal `db:"max_price" json:"max_price"`
}

// CompositeKey renders the identity pair as the canonical "{base}_{event}" string.
func CompositeKey(baseEventID, eventID int64) string {
	return fmt.Sprintf("%d_%d", baseEventID, eventID)
}

func (c CandidateEvent) CompositeKey() string {
	return CompositeKey(c.BaseEventID, c.EventID)
}

func (e Event) CompositeKey() string {
	return CompositeKey(e.BaseEventID, e.EventID)
}

// ToEvent converts a candidate into its persistent form.
func (c CandidateEvent) ToEvent() Event {
	return Event{
		BaseEventID: c.BaseEventID,
		EventID:     c.EventID,
		Title:       c.Title,
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
		MinPrice:    c.MinPrice,
		MaxPrice:    c.MaxPrice,
	}
}

// RangeCacheKey derives the cache key from the literal query boundaries.
// Two logically overlapping ranges with different textual boundaries get
// different keys on purpose: entries are only ever reused for the exact
// same request. Nanosecond rendering keeps sub-second boundaries distinct;
// dropping fractions would let two different ranges share an entry.
func RangeCacheKey(startsAt, endsAt time.Time) string {
	return fmt.Sprintf("events_%s_%s", startsAt.Format(time.RFC3339Nano), endsAt.Format(time.RFC3339Nano))
}
