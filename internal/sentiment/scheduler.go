package sentiment

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/pscheid92/postpulse/internal/metrics"
	"github.com/pscheid92/postpulse/internal/platform/correlation"
)

const runQueueSize = 16

// Debouncer collapses bursts of triggers. A nil Debouncer admits everything.
type Debouncer interface {
	Allow(ctx context.Context) (bool, error)
}

// Scheduler queues enrichment runs onto a single background worker. Trigger
// returns immediately with an opaque run ID; run outcomes surface only in
// logs and metrics. Overlapping runs need no mutual exclusion because
// enrichment writes are idempotent and field-level.
type Scheduler struct {
	enricher  *Enricher
	debouncer Debouncer
	queue     chan uuid.UUID
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewScheduler(enricher *Enricher, debouncer Debouncer) *Scheduler {
	return &Scheduler{
		enricher:  enricher,
		debouncer: debouncer,
		queue:     make(chan uuid.UUID, runQueueSize),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to drain it.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Stop shuts the worker down after it finishes the run in progress.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Trigger enqueues one enrichment run and returns without waiting for it.
// Bursts within the debounce window collapse into the pending run (Queued
// false); a full queue drops the trigger rather than blocking the caller.
func (s *Scheduler) Trigger(ctx context.Context) (domain.EnrichmentAck, error) {
	runID := uuid.New()

	if s.debouncer != nil {
		allowed, err := s.debouncer.Allow(ctx)
		if err != nil {
			// Debounce is an optimization; a broken debouncer must not
			// block enrichment.
			slog.WarnContext(ctx, "Trigger debounce check failed, queueing anyway", "error", err)
		} else if !allowed {
			metrics.EnrichmentTriggersTotal.WithLabelValues("debounced").Inc()
			return domain.EnrichmentAck{RunID: runID, Queued: false}, nil
		}
	}

	select {
	case s.queue <- runID:
		metrics.EnrichmentTriggersTotal.WithLabelValues("queued").Inc()
		return domain.EnrichmentAck{RunID: runID, Queued: true}, nil
	default:
		metrics.EnrichmentTriggersTotal.WithLabelValues("dropped").Inc()
		slog.WarnContext(ctx, "Enrichment queue full, dropping trigger", "run_id", runID.String())
		return domain.EnrichmentAck{RunID: runID, Queued: false}, nil
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case runID := <-s.queue:
			s.runOnce(runID)
		}
	}
}

func (s *Scheduler) runOnce(runID uuid.UUID) {
	// Detached from the triggering request: the run outlives it.
	ctx := correlation.WithID(context.Background(), runID.String())

	slog.InfoContext(ctx, "Enrichment run starting")
	stats, err := s.enricher.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Enrichment run aborted", "error", err)
		return
	}
	slog.InfoContext(ctx, "Enrichment run finished",
		"candidates", stats.Candidates, "scored", stats.Scored, "failed", stats.Failed)
}
