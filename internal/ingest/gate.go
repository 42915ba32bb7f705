// Package ingest decides fetch-vs-reuse and keeps the store free of
// duplicate posts.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/pscheid92/postpulse/internal/metrics"
	"github.com/pscheid92/postpulse/internal/normalize"
)

// Gate sits between the upstream source and the post store. Raw posts are
// normalized exactly once here, at ingestion time.
type Gate struct {
	source domain.PostSource
	store  domain.PostStore
	clock  clockwork.Clock
}

func NewGate(source domain.PostSource, store domain.PostStore, clock clockwork.Clock) *Gate {
	return &Gate{source: source, store: store, clock: clock}
}

// Fetch calls the upstream source for up to limit posts, skips those already
// stored, and inserts the remainder unscored. It returns the count of newly
// inserted posts. Zero upstream results is success with count 0; an upstream
// failure inserts nothing.
func (g *Gate) Fetch(ctx context.Context, query string, limit int) (int, error) {
	raw, err := g.source.Search(ctx, query, limit)
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues("upstream_error").Inc()
		return 0, fmt.Errorf("upstream search for %q failed: %w", query, err)
	}

	fresh := make([]domain.Post, 0, len(raw))
	for _, rp := range raw {
		exists, err := g.store.Exists(ctx, rp.ID)
		if err != nil {
			metrics.FetchRequestsTotal.WithLabelValues("store_error").Inc()
			return 0, fmt.Errorf("failed to check post %s: %w", rp.ID, err)
		}
		if exists {
			// First ingestion wins: raw content and query context of a
			// stored post are never overwritten by a later fetch.
			metrics.PostsDeduplicatedTotal.Inc()
			continue
		}

		fresh = append(fresh, domain.Post{
			ID:             rp.ID,
			Query:          rp.Query,
			Author:         rp.Author,
			CreatedAt:      rp.CreatedAt,
			RawText:        rp.Text,
			NormalizedText: normalize.Text(rp.Text),
			IngestedAt:     g.clock.Now().UTC(),
		})
	}

	if err := g.store.Upsert(ctx, fresh); err != nil {
		metrics.FetchRequestsTotal.WithLabelValues("store_error").Inc()
		return 0, fmt.Errorf("failed to store fetched posts: %w", err)
	}

	metrics.FetchRequestsTotal.WithLabelValues("success").Inc()
	metrics.PostsInsertedTotal.Add(float64(len(fresh)))
	slog.InfoContext(ctx, "Fetched posts", "query", query, "upstream", len(raw), "inserted", len(fresh))
	return len(fresh), nil
}

// CacheFresh reports whether at least one post for the query was ingested
// within maxAge. This is a coarse query-level signal, not per-post.
func (g *Gate) CacheFresh(ctx context.Context, query string, maxAge time.Duration) (bool, error) {
	posts, err := g.store.QueryRecent(ctx, query, maxAge, 1)
	if err != nil {
		return false, fmt.Errorf("failed to check cache freshness: %w", err)
	}
	return len(posts) > 0, nil
}
