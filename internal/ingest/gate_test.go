package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockPostSource struct {
	searchFn func(ctx context.Context, query string, limit int) ([]domain.RawPost, error)
}

func (m *mockPostSource) Search(ctx context.Context, query string, limit int) ([]domain.RawPost, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

type mockPostStore struct {
	upsertFn       func(ctx context.Context, posts []domain.Post) error
	existsFn       func(ctx context.Context, id string) (bool, error)
	queryRecentFn  func(ctx context.Context, query string, maxAge time.Duration, limit int) ([]domain.Post, error)
	findUnscoredFn func(ctx context.Context, limit int) ([]domain.Post, error)
}

func (m *mockPostStore) Upsert(ctx context.Context, posts []domain.Post) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, posts)
	}
	return nil
}

func (m *mockPostStore) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return false, nil
}

func (m *mockPostStore) QueryRecent(ctx context.Context, query string, maxAge time.Duration, limit int) ([]domain.Post, error) {
	if m.queryRecentFn != nil {
		return m.queryRecentFn(ctx, query, maxAge, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockPostStore) FindUnscored(ctx context.Context, limit int) ([]domain.Post, error) {
	if m.findUnscoredFn != nil {
		return m.findUnscoredFn(ctx, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

func rawPost(id, text string) domain.RawPost {
	return domain.RawPost{
		ID:        id,
		Query:     "golang",
		Author:    "gopher",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Text:      text,
	}
}

// --- Tests ---

func TestGate_Fetch_InsertsNewPosts(t *testing.T) {
	now := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	source := &mockPostSource{
		searchFn: func(_ context.Context, query string, limit int) ([]domain.RawPost, error) {
			assert.Equal(t, "golang", query)
			assert.Equal(t, 15, limit)
			return []domain.RawPost{rawPost("p1", "Go IS Great"), rawPost("p2", "slow build @someone")}, nil
		},
	}

	var upserted []domain.Post
	store := &mockPostStore{
		upsertFn: func(_ context.Context, posts []domain.Post) error {
			upserted = posts
			return nil
		},
	}

	gate := NewGate(source, store, clock)
	count, err := gate.Fetch(context.Background(), "golang", 15)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, upserted, 2)

	assert.Equal(t, "p1", upserted[0].ID)
	assert.Equal(t, "Go IS Great", upserted[0].RawText)
	assert.Equal(t, "go is great", upserted[0].NormalizedText)
	assert.Equal(t, now, upserted[0].IngestedAt)
	assert.False(t, upserted[0].Enriched())

	assert.Equal(t, "slow build", upserted[1].NormalizedText)
}

func TestGate_Fetch_SkipsExistingPosts(t *testing.T) {
	source := &mockPostSource{
		searchFn: func(context.Context, string, int) ([]domain.RawPost, error) {
			return []domain.RawPost{rawPost("old", "seen before"), rawPost("new", "brand new")}, nil
		},
	}

	var upserted []domain.Post
	store := &mockPostStore{
		existsFn: func(_ context.Context, id string) (bool, error) {
			return id == "old", nil
		},
		upsertFn: func(_ context.Context, posts []domain.Post) error {
			upserted = posts
			return nil
		},
	}

	gate := NewGate(source, store, clockwork.NewFakeClock())
	count, err := gate.Fetch(context.Background(), "golang", 15)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, upserted, 1)
	assert.Equal(t, "new", upserted[0].ID)
}

func TestGate_Fetch_ZeroUpstreamResults(t *testing.T) {
	source := &mockPostSource{
		searchFn: func(context.Context, string, int) ([]domain.RawPost, error) {
			return nil, nil
		},
	}
	store := &mockPostStore{}

	gate := NewGate(source, store, clockwork.NewFakeClock())
	count, err := gate.Fetch(context.Background(), "obscure query", 15)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGate_Fetch_UpstreamErrorInsertsNothing(t *testing.T) {
	source := &mockPostSource{
		searchFn: func(context.Context, string, int) ([]domain.RawPost, error) {
			return nil, domain.ErrUpstreamUnavailable
		},
	}
	upsertCalled := false
	store := &mockPostStore{
		upsertFn: func(context.Context, []domain.Post) error {
			upsertCalled = true
			return nil
		},
	}

	gate := NewGate(source, store, clockwork.NewFakeClock())
	count, err := gate.Fetch(context.Background(), "golang", 15)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 0, count)
	assert.False(t, upsertCalled)
}

func TestGate_Fetch_StoreErrorPropagates(t *testing.T) {
	source := &mockPostSource{
		searchFn: func(context.Context, string, int) ([]domain.RawPost, error) {
			return []domain.RawPost{rawPost("p1", "fine")}, nil
		},
	}
	store := &mockPostStore{
		upsertFn: func(context.Context, []domain.Post) error {
			return fmt.Errorf("connection reset")
		},
	}

	gate := NewGate(source, store, clockwork.NewFakeClock())
	_, err := gate.Fetch(context.Background(), "golang", 15)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store fetched posts")
}

func TestGate_CacheFresh(t *testing.T) {
	store := &mockPostStore{
		queryRecentFn: func(_ context.Context, query string, maxAge time.Duration, limit int) ([]domain.Post, error) {
			assert.Equal(t, 10*time.Hour, maxAge)
			assert.Equal(t, 1, limit)
			if query == "warm" {
				return []domain.Post{{ID: "p1"}}, nil
			}
			return nil, nil
		},
	}

	gate := NewGate(&mockPostSource{}, store, clockwork.NewFakeClock())

	fresh, err := gate.CacheFresh(context.Background(), "warm", 10*time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = gate.CacheFresh(context.Background(), "cold", 10*time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
}
