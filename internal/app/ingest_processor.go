package app

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rahulNinjatech/fever/internal/domain/model"
	"github.com/rahulNinjatech/fever/internal/domain/repository"
	"github.com/rahulNinjatech/fever/internal/domain/service"
	"github.com/rahulNinjatech/fever/internal/domain/useCases"
	"github.com/rahulNinjatech/fever/internal/metrics"
)

// IngestProcessor runs the ingestion pipeline on a recurring timer: fetch the
// provider feed, parse it into candidates, diff them against the store, and
// bulk-insert whatever is new. Each tick is independent; a failure at any stage
// aborts that tick with no partial writes, and the next tick starts clean.
//
// Overlapping ticks are never allowed: if a run is still in flight when the
// timer fires, the new tick waits out the misfire grace window and is then
// skipped, not queued.
type IngestProcessor struct {
	source   useCases.FeedSource
	parser   *service.FeedParser
	store    repository.EventStore
	log      *slog.Logger
	interval time.Duration
	grace    time.Duration

	running atomic.Bool
	mu      sync.Mutex
	runDone chan struct{}
}

func NewIngestProcessor(
	source useCases.FeedSource,
	parser *service.FeedParser,
	store repository.EventStore,
	interval, grace time.Duration,
	log *slog.Logger,
) *IngestProcessor {
	done := make(chan struct{})
	close(done)
	return &IngestProcessor{
		source:   source,
		parser:   parser,
		store:    store,
		log:      log,
		interval: interval,
		grace:    grace,
		runDone:  done,
	}
}

// Run drives the timer loop until the context is cancelled. An immediate pass
// fires before the first tick so a fresh deployment doesn't sit idle for a
// full interval.
func (p *IngestProcessor) Run(ctx context.Context) error {
	p.dispatch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.dispatch(ctx)
		}
	}
}

// dispatch starts a tick unless the prior one is still running. A blocked tick
// may still start late if the prior run finishes within the grace window.
func (p *IngestProcessor) dispatch(ctx context.Context) {
	if p.running.CompareAndSwap(false, true) {
		p.launch(ctx)
		return
	}

	p.mu.Lock()
	done := p.runDone
	p.mu.Unlock()

	grace := time.NewTimer(p.grace)
	defer grace.Stop()
	select {
	case <-done:
		if p.running.CompareAndSwap(false, true) {
			p.launch(ctx)
			return
		}
	case <-grace.C:
	case <-ctx.Done():
		return
	}

	metrics.IngestTicksSkippedTotal.Inc()
	p.log.Warn("skipping ingestion tick, prior run still in flight")
}

func (p *IngestProcessor) launch(ctx context.Context) {
	done := make(chan struct{})
	p.mu.Lock()
	p.runDone = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer p.running.Store(false)
		if err := p.RunOnce(ctx); err != nil {
			p.log.Error("ingestion tick aborted", "error", err)
		}
	}()
}

// RunOnce executes a single tick end to end. Idempotence rests on the store's
// composite-key uniqueness plus the diff-before-insert discipline: re-running
// against an unchanged feed and store inserts nothing.
func (p *IngestProcessor) RunOnce(ctx context.Context) error {
	start := time.Now()

	raw, err := p.source.Fetch(ctx)
	if err != nil {
		metrics.IngestTicksTotal.WithLabelValues("fetch_error").Inc()
		return err
	}

	mappings, err := p.parser.Parse(raw)
	if err != nil {
		metrics.IngestTicksTotal.WithLabelValues("parse_error").Inc()
		return err
	}

	candidates := orderCandidates(mappings)

	existing, err := p.store.FindExisting(ctx, candidates)
	if err != nil {
		metrics.IngestTicksTotal.WithLabelValues("store_error").Inc()
		return err
	}

	stored := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		stored[e.CompositeKey()] = struct{}{}
	}

	missing := make([]model.CandidateEvent, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := stored[c.CompositeKey()]; !ok {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		if err := p.store.InsertAll(ctx, missing); err != nil {
			metrics.IngestTicksTotal.WithLabelValues("store_error").Inc()
			return err
		}
		metrics.IngestEventsInsertedTotal.Add(float64(len(missing)))
		p.log.Info("persisted new events", "inserted", len(missing), "candidates", len(candidates))
	} else {
		p.log.Info("no new events in feed", "candidates", len(candidates))
	}

	metrics.IngestTicksTotal.WithLabelValues("success").Inc()
	metrics.IngestTickDuration.Observe(time.Since(start).Seconds())
	return nil
}

// orderCandidates flattens the parse mapping into a deterministic sequence so
// inserts and logs are stable across runs.
func orderCandidates(mappings map[string]model.CandidateEvent) []model.CandidateEvent {
	candidates := make([]model.CandidateEvent, 0, len(mappings))
	for _, c := range mappings {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].BaseEventID != candidates[j].BaseEventID {
			return candidates[i].BaseEventID < candidates[j].BaseEventID
		}
		return candidates[i].EventID < candidates[j].EventID
	})
	return candidates
}
