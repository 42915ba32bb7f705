// Package app is the application layer, the only package that composes
// multiple domain components. Handlers route every operation through here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/pscheid92/postpulse/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// IngestionGate is the fetch-side collaborator (see internal/ingest).
type IngestionGate interface {
	Fetch(ctx context.Context, query string, limit int) (int, error)
}

// Service implements domain.AppService.
type Service struct {
	gate        IngestionGate
	store       domain.PostStore
	scheduler   domain.Scheduler
	cacheWindow time.Duration
	fetchGroup  singleflight.Group
}

// NewService creates the application layer service. cacheWindow is the
// configured freshness window for reads.
func NewService(gate IngestionGate, store domain.PostStore, scheduler domain.Scheduler, cacheWindow time.Duration) *Service {
	return &Service{
		gate:        gate,
		store:       store,
		scheduler:   scheduler,
		cacheWindow: cacheWindow,
	}
}

// Fetch always calls upstream; every invocation spends upstream quota.
// Concurrent fetches for the same query collapse into one upstream call.
func (s *Service) Fetch(ctx context.Context, query string, limit int) (int, error) {
	v, err, _ := s.fetchGroup.Do(query, func() (any, error) {
		return s.gate.Fetch(ctx, query, limit)
	})
	if err != nil {
		return 0, err
	}

	count, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("unexpected fetch result type %T", v)
	}
	return count, nil
}

// Read returns cached posts for the query within the freshness window. It
// never triggers a fetch; a cold cache yields an empty slice, not an error.
func (s *Service) Read(ctx context.Context, query string, limit int) ([]domain.Post, error) {
	posts, err := s.store.QueryRecent(ctx, query, s.cacheWindow, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached posts: %w", err)
	}

	if len(posts) == 0 {
		metrics.CacheReadsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.CacheReadsTotal.WithLabelValues("hit").Inc()
	}
	return posts, nil
}

// RequestEnrichment schedules one background enrichment run.
func (s *Service) RequestEnrichment(ctx context.Context) (domain.EnrichmentAck, error) {
	return s.scheduler.Trigger(ctx)
}
