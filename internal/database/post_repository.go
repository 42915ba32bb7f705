package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/postpulse/internal/domain"
)

// postColumns must match the Scan order in scanPost.
const postColumns = `id, query, author, created_at, raw_text, normalized_text, lexicon_label, lexicon_score, classifier_label, classifier_score, ingested_at`

// upsertSQL merges only the sentiment columns on conflict. Raw content,
// query, and ingested_at are immutable after the first write, and a NULL in
// the incoming row never reverts a previously set score.
const upsertSQL = `
	INSERT INTO posts (` + postColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		lexicon_label = COALESCE(EXCLUDED.lexicon_label, posts.lexicon_label),
		lexicon_score = COALESCE(EXCLUDED.lexicon_score, posts.lexicon_score),
		classifier_label = COALESCE(EXCLUDED.classifier_label, posts.classifier_label),
		classifier_score = COALESCE(EXCLUDED.classifier_score, posts.classifier_score)`

// PostRepo implements domain.PostStore backed by PostgreSQL.
type PostRepo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewPostRepo creates a PostRepo from the shared connection pool.
func NewPostRepo(pool *pgxpool.Pool, clock clockwork.Clock) *PostRepo {
	return &PostRepo{pool: pool, clock: clock}
}

func validateLabels(post *domain.Post) error {
	if post.LexiconLabel != nil {
		switch *post.LexiconLabel {
		case domain.LabelPositive, domain.LabelNeutral, domain.LabelNegative:
		default:
			return fmt.Errorf("%w: lexicon label %q", domain.ErrInvalidLabel, *post.LexiconLabel)
		}
	}
	if post.ClassifierLabel != nil {
		switch *post.ClassifierLabel {
		case domain.LabelPositive, domain.LabelNeutral, domain.LabelNegative:
		default:
			return fmt.Errorf("%w: classifier label %q", domain.ErrInvalidLabel, *post.ClassifierLabel)
		}
	}
	return nil
}

// Upsert writes posts keyed by ID. Every post in the batch is attempted even
// when some fail; the returned error summarizes the failures. Empty input is
// a no-op.
func (r *PostRepo) Upsert(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range posts {
		post := &posts[i]
		if err := validateLabels(post); err != nil {
			return err
		}
		ingestedAt := post.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = r.clock.Now().UTC()
		}
		batch.Queue(upsertSQL,
			post.ID, post.Query, post.Author, post.CreatedAt, post.RawText, post.NormalizedText,
			post.LexiconLabel, post.LexiconScore, post.ClassifierLabel, post.ClassifierScore,
			ingestedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var failed int
	var firstErr error
	for range posts {
		if _, err := results.Exec(); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to upsert %d of %d posts: %w", failed, len(posts), firstErr)
	}
	return nil
}

// Exists is a point lookup by post ID.
func (r *PostRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

// QueryRecent returns posts for the exact query ingested within maxAge,
// newest-ingested first. An empty result is not an error.
func (r *PostRepo) QueryRecent(ctx context.Context, query string, maxAge time.Duration, limit int) ([]domain.Post, error) {
	cutoff := r.clock.Now().UTC().Add(-maxAge)

	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE query = $1 AND ingested_at >= $2
		ORDER BY ingested_at DESC
		LIMIT $3
	`, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// FindUnscored returns posts missing any sentiment field, oldest-ingested
// first so stragglers are retried before fresh arrivals.
func (r *PostRepo) FindUnscored(ctx context.Context, limit int) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE lexicon_label IS NULL
		   OR lexicon_score IS NULL
		   OR classifier_label IS NULL
		   OR classifier_score IS NULL
		ORDER BY ingested_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unscored posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	posts := []domain.Post{}
	for rows.Next() {
		var post domain.Post
		err := rows.Scan(
			&post.ID, &post.Query, &post.Author, &post.CreatedAt,
			&post.RawText, &post.NormalizedText,
			&post.LexiconLabel, &post.LexiconScore,
			&post.ClassifierLabel, &post.ClassifierScore,
			&post.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}
