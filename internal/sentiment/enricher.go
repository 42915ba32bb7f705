package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/pscheid92/postpulse/internal/metrics"
)

// Enricher attaches both sentiment scores to unscored posts. A post is
// written back only when both models produced a score, so no record ever
// holds a partial sentiment field set. Re-running over an already-enriched
// post is a no-op because FindUnscored never returns it.
type Enricher struct {
	store      domain.PostStore
	lexicon    domain.LexiconModel
	classifier domain.ClassifierModel
	batchSize  int
}

// RunStats summarizes one enrichment run.
type RunStats struct {
	Candidates int
	Scored     int
	Failed     int
}

func NewEnricher(store domain.PostStore, lexicon domain.LexiconModel, classifier domain.ClassifierModel, batchSize int) *Enricher {
	return &Enricher{
		store:      store,
		lexicon:    lexicon,
		classifier: classifier,
		batchSize:  batchSize,
	}
}

// Run scores up to the configured batch size of unscored posts. A model
// failure on one post leaves that post unscored for the next run and does
// not abort the batch; a store failure aborts the run.
func (e *Enricher) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	defer func() {
		metrics.EnrichmentRunDuration.Observe(time.Since(start).Seconds())
	}()

	posts, err := e.store.FindUnscored(ctx, e.batchSize)
	if err != nil {
		metrics.EnrichmentRunsTotal.WithLabelValues("store_error").Inc()
		return RunStats{}, fmt.Errorf("failed to load unscored posts: %w", err)
	}

	stats := RunStats{Candidates: len(posts)}
	if len(posts) == 0 {
		metrics.EnrichmentRunsTotal.WithLabelValues("completed").Inc()
		return stats, nil
	}

	scored := make([]domain.Post, 0, len(posts))
	for i := range posts {
		post := posts[i]

		lex, err := e.lexicon.Score(post.NormalizedText)
		if err != nil {
			metrics.ModelFailuresTotal.WithLabelValues("lexicon").Inc()
			slog.WarnContext(ctx, "Lexicon model failed, leaving post unscored", "post_id", post.ID, "error", err)
			stats.Failed++
			continue
		}

		cls, err := e.classifier.Classify(ctx, post.NormalizedText)
		if err != nil {
			metrics.ModelFailuresTotal.WithLabelValues("classifier").Inc()
			slog.WarnContext(ctx, "Classifier model failed, leaving post unscored", "post_id", post.ID, "error", err)
			stats.Failed++
			continue
		}

		post.LexiconLabel = &lex.Label
		post.LexiconScore = &lex.Compound
		post.ClassifierLabel = &cls.Label
		post.ClassifierScore = &cls.Confidence
		scored = append(scored, post)
	}

	if err := e.store.Upsert(ctx, scored); err != nil {
		metrics.EnrichmentRunsTotal.WithLabelValues("store_error").Inc()
		return stats, fmt.Errorf("failed to persist enriched posts: %w", err)
	}

	stats.Scored = len(scored)
	metrics.PostsScoredTotal.Add(float64(stats.Scored))
	metrics.EnrichmentRunsTotal.WithLabelValues("completed").Inc()
	return stats, nil
}
