package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Sentiment labels are a closed set; anything else is rejected at the model
// and store boundaries.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// Post is one ingested social-media item. The four sentiment fields stay nil
// until the enricher has scored the post; they are only ever written together.
type Post struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	Author          string    `json:"author"`
	CreatedAt       time.Time `json:"created_at"`
	RawText         string    `json:"raw_text"`
	NormalizedText  string    `json:"normalized_text"`
	LexiconLabel    *string   `json:"lexicon_label"`
	LexiconScore    *float64  `json:"lexicon_score"`
	ClassifierLabel *string   `json:"classifier_label"`
	ClassifierScore *float64  `json:"classifier_score"`
	IngestedAt      time.Time `json:"ingested_at"`
}

// Enriched reports whether all four sentiment fields are populated.
func (p *Post) Enriched() bool {
	return p.LexiconLabel != nil && p.LexiconScore != nil &&
		p.ClassifierLabel != nil && p.ClassifierScore != nil
}

// RawPost is what the upstream source returns before normalization.
type RawPost struct {
	ID        string
	Query     string
	Author    string
	CreatedAt time.Time
	Text      string
}

// LexiconResult is the output of the rule-based scorer. Compound is in [-1, 1].
type LexiconResult struct {
	Label    string
	Compound float64
}

// ClassifierResult is the output of the neural classifier. Confidence is in [0, 1].
type ClassifierResult struct {
	Label      string
	Confidence float64
}

// EnrichmentAck acknowledges a fire-and-forget enrichment trigger. Queued is
// false when the trigger was collapsed into an already-pending run.
type EnrichmentAck struct {
	RunID  uuid.UUID `json:"run_id"`
	Queued bool      `json:"queued"`
}

// --- Interfaces ---

// PostStore abstracts durable post storage. Upsert is idempotent by ID and
// merges sentiment fields into existing rows without touching raw content or
// IngestedAt. It attempts every post in the batch; callers must not assume
// atomicity across the batch.
type PostStore interface {
	Upsert(ctx context.Context, posts []Post) error
	Exists(ctx context.Context, id string) (bool, error)
	QueryRecent(ctx context.Context, query string, maxAge time.Duration, limit int) ([]Post, error)
	FindUnscored(ctx context.Context, limit int) ([]Post, error)
}

// PostSource is the upstream search API. It may return fewer posts than
// limit; zero results is success.
type PostSource interface {
	Search(ctx context.Context, query string, limit int) ([]RawPost, error)
}

// LexiconModel scores normalized text with the deterministic rule-based model.
type LexiconModel interface {
	Score(text string) (LexiconResult, error)
}

// ClassifierModel scores normalized text with a pretrained classifier.
type ClassifierModel interface {
	Classify(ctx context.Context, text string) (ClassifierResult, error)
}

// Scheduler dispatches enrichment runs on a background worker. Trigger
// returns before the run executes; run failures are observable only through
// logs and metrics.
type Scheduler interface {
	Trigger(ctx context.Context) (EnrichmentAck, error)
}

// AppService is the application layer contract. Handlers route all
// operations through here.
type AppService interface {
	Fetch(ctx context.Context, query string, limit int) (int, error)
	Read(ctx context.Context, query string, limit int) ([]Post, error)
	RequestEnrichment(ctx context.Context) (EnrichmentAck, error)
}
