package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rahulNinjatech/fever/internal/app"
	"github.com/rahulNinjatech/fever/internal/domain/model"
	"github.com/rahulNinjatech/fever/internal/domain/service"
	"github.com/rahulNinjatech/fever/pkg/utils"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFeedSource implements useCases.FeedSource
type fakeFeedSource struct {
	payload []byte
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeFeedSource) Fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

// fakeEventStore implements repository.EventStore over an in-memory row map
type fakeEventStore struct {
	mu          sync.Mutex
	rows        map[string]model.Event
	findCalls   int
	insertCalls int
	insertErr   error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{rows: make(map[string]model.Event)}
}

func (f *fakeEventStore) FindExisting(ctx context.Context, candidates []model.CandidateEvent) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	var out []model.Event
	for _, c := range candidates {
		if e, ok := f.rows[c.CompositeKey()]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) InsertAll(ctx context.Context, candidates []model.CandidateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		// Atomic contract: a failed transaction commits nothing.
		return f.insertErr
	}
	for _, c := range candidates {
		f.rows[c.CompositeKey()] = c.ToEvent()
	}
	return nil
}

func (f *fakeEventStore) ListBetween(ctx context.Context, startsAt, endsAt time.Time) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.rows {
		if !e.StartTime.Before(startsAt) && !e.StartTime.After(endsAt) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func sampleFeed(t *testing.T) []byte {
	t.Helper()
	raw, err := utils.NewFeedBuilder().
		AddBaseEvent(utils.BaseEvent{
			BaseEventID: 291, SellMode: "online", Title: "Camela en concierto",
			Events: []utils.Event{
				{EventID: 291, StartDate: "2021-06-30T21:00:00", EndDate: "2021-06-30T22:00:00", Zones: []utils.Zone{{Price: "20.00"}}},
			},
		}).
		AddBaseEvent(utils.BaseEvent{
			BaseEventID: 322, SellMode: "online", Title: "Pantomima Full",
			Events: []utils.Event{
				{EventID: 1642, StartDate: "2021-02-10T20:00:00", EndDate: "2021-02-10T21:30:00", Zones: []utils.Zone{{Price: "55.00"}}},
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("failed to build feed: %v", err)
	}
	return raw
}

func newProcessor(source *fakeFeedSource, store *fakeEventStore, interval, grace time.Duration) *app.IngestProcessor {
	return app.NewIngestProcessor(source, service.NewFeedParser(testLogger()), store, interval, grace, testLogger())
}

func TestRunOnceDedupIdempotence(t *testing.T) {
	source := &fakeFeedSource{payload: sampleFeed(t)}
	store := newFakeEventStore()
	processor := newProcessor(source, store, time.Second, time.Second)

	if err := processor.RunOnce(context.Background()); err != nil {
		t.Fatalf("first tick failed: %v", err)
	}
	if store.rowCount() != 2 {
		t.Fatalf("expected 2 stored rows, got %d", store.rowCount())
	}
	if store.insertCalls != 1 {
		t.Fatalf("expected 1 insert transaction, got %d", store.insertCalls)
	}

	// Same feed, unchanged store: the second tick must be a no-op.
	if err := processor.RunOnce(context.Background()); err != nil {
		t.Fatalf("second tick failed: %v", err)
	}
	if store.rowCount() != 2 {
		t.Errorf("re-ingestion changed the row set: %d rows", store.rowCount())
	}
	if store.insertCalls != 1 {
		t.Errorf("empty diff must not call the store, got %d insert calls", store.insertCalls)
	}
}

func TestRunOncePartialFeedOverlap(t *testing.T) {
	source := &fakeFeedSource{payload: sampleFeed(t)}
	store := newFakeEventStore()
	processor := newProcessor(source, store, time.Second, time.Second)

	if err := processor.RunOnce(context.Background()); err != nil {
		t.Fatalf("first tick failed: %v", err)
	}

	// A later snapshot carrying one known and one new pair inserts only the new one.
	grown, err := utils.NewFeedBuilder().
		AddBaseEvent(utils.BaseEvent{
			BaseEventID: 291, SellMode: "online", Title: "Camela en concierto",
			Events: []utils.Event{
				{EventID: 291, StartDate: "2021-06-30T21:00:00", EndDate: "2021-06-30T22:00:00", Zones: []utils.Zone{{Price: "20.00"}}},
				{EventID: 293, StartDate: "2021-07-02T21:00:00", EndDate: "2021-07-02T22:00:00", Zones: []utils.Zone{{Price: "15.00"}}},
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("failed to build feed: %v", err)
	}
	source.payload = grown

	if err := processor.RunOnce(context.Background()); err != nil {
		t.Fatalf("second tick failed: %v", err)
	}
	if store.rowCount() != 3 {
		t.Fatalf("expected 3 rows after the grown snapshot, got %d", store.rowCount())
	}
	if _, ok := store.rows["291_293"]; !ok {
		t.Error("expected the new pair 291_293 to be stored")
	}
}

func TestRunOnceTransportFailureAbortsTick(t *testing.T) {
	source := &fakeFeedSource{err: errors.New("connection refused")}
	store := newFakeEventStore()
	processor := newProcessor(source, store, time.Second, time.Second)

	if err := processor.RunOnce(context.Background()); err == nil {
		t.Fatal("expected the tick to fail")
	}
	if store.findCalls != 0 || store.insertCalls != 0 {
		t.Errorf("failed fetch must not touch the store: %d finds, %d inserts", store.findCalls, store.insertCalls)
	}
}

func TestRunOnceMalformedFeedAbortsTick(t *testing.T) {
	source := &fakeFeedSource{payload: []byte("<output><base_event></nope>")}
	store := newFakeEventStore()
	processor := newProcessor(source, store, time.Second, time.Second)

	var malformed *service.MalformedFeedError
	if err := processor.RunOnce(context.Background()); !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedFeedError, got %v", err)
	}
	if store.findCalls != 0 || store.insertCalls != 0 {
		t.Errorf("failed parse must not touch the store: %d finds, %d inserts", store.findCalls, store.insertCalls)
	}
}

func TestRunOnceAtomicInsertFailure(t *testing.T) {
	source := &fakeFeedSource{payload: sampleFeed(t)}
	store := newFakeEventStore()
	store.insertErr = errors.New("deadlock detected")
	processor := newProcessor(source, store, time.Second, time.Second)

	if err := processor.RunOnce(context.Background()); err == nil {
		t.Fatal("expected the tick to fail")
	}
	if store.rowCount() != 0 {
		t.Errorf("failed transaction must commit zero rows, got %d", store.rowCount())
	}
}

func TestRunSkipsOverlappingTicks(t *testing.T) {
	// One slow fetch spanning many intervals: every tick fired while it runs
	// must be skipped, never queued.
	source := &fakeFeedSource{payload: sampleFeed(t), delay: 250 * time.Millisecond}
	store := newFakeEventStore()
	processor := newProcessor(source, store, 30*time.Millisecond, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	processor.Run(ctx)

	// Give the in-flight run a moment to observe cancellation.
	time.Sleep(100 * time.Millisecond)

	if got := source.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 fetch while the slow run was in flight, got %d", got)
	}
}
