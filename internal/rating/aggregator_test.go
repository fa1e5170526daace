package rating

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplio/review-backend/internal/queue"
)

type fakeStore struct {
	ratings  map[string][]int
	written  map[string]Snapshot
	readErr  error
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ratings: map[string][]int{},
		written: map[string]Snapshot{},
	}
}

func (f *fakeStore) PublishedRatings(ctx context.Context, productID string) ([]int, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.ratings[productID], nil
}

func (f *fakeStore) UpdateProductRating(ctx context.Context, productID string, snap Snapshot) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written[productID] = snap
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		ratings   []int
		wantAvg   float64
		wantCount int
		wantStats map[int]int
	}{
		{
			name:      "single rating",
			ratings:   []int{4},
			wantAvg:   4,
			wantCount: 1,
			wantStats: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 0},
		},
		{
			name:      "repeating average rounds half-up",
			ratings:   []int{5, 4, 5},
			wantAvg:   4.67,
			wantCount: 3,
			wantStats: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2},
		},
		{
			name:      "exact two decimals",
			ratings:   []int{1, 2},
			wantAvg:   1.5,
			wantCount: 2,
			wantStats: map[int]int{1: 1, 2: 1, 3: 0, 4: 0, 5: 0},
		},
		{
			name:      "thirds round down when below half",
			ratings:   []int{1, 1, 2},
			wantAvg:   1.33,
			wantCount: 3,
			wantStats: map[int]int{1: 2, 2: 1, 3: 0, 4: 0, 5: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Compute(tt.ratings)
			require.NotNil(t, snap.AverageRating)
			assert.InDelta(t, tt.wantAvg, *snap.AverageRating, 1e-9)
			assert.Equal(t, tt.wantCount, snap.ReviewCount)
			assert.Equal(t, tt.wantStats, snap.Stats)
		})
	}
}

func TestComputeEmpty(t *testing.T) {
	snap := Compute(nil)
	assert.Nil(t, snap.AverageRating)
	assert.Equal(t, 0, snap.ReviewCount)
	assert.Equal(t, map[int]int{}, snap.Stats)
}

func TestRecomputeProductRating(t *testing.T) {
	store := newFakeStore()
	store.ratings["p1"] = []int{5, 4, 5}
	agg := NewAggregator(store, testLogger())

	require.NoError(t, agg.RecomputeProductRating(context.Background(), "p1"))

	snap, ok := store.written["p1"]
	require.True(t, ok)
	assert.Equal(t, 3, snap.ReviewCount)
	assert.InDelta(t, 4.67, *snap.AverageRating, 1e-9)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.ratings["p1"] = []int{3, 3}
	agg := NewAggregator(store, testLogger())

	require.NoError(t, agg.RecomputeProductRating(context.Background(), "p1"))
	first := store.written["p1"]

	require.NoError(t, agg.RecomputeProductRating(context.Background(), "p1"))
	assert.Equal(t, first, store.written["p1"])
}

func TestRecomputeMissingProductIsPermanent(t *testing.T) {
	store := newFakeStore()
	store.writeErr = ErrProductNotFound
	agg := NewAggregator(store, testLogger())

	err := agg.RecomputeProductRating(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProcess(t *testing.T) {
	store := newFakeStore()
	store.ratings["p1"] = []int{5}
	agg := NewAggregator(store, testLogger())

	job := &queue.Job{Payload: []byte(`{"productId":"p1"}`)}
	require.NoError(t, agg.Process(context.Background(), job))
	assert.Contains(t, store.written, "p1")
}

func TestProcessBadPayload(t *testing.T) {
	agg := NewAggregator(newFakeStore(), testLogger())

	for _, payload := range []string{`not json`, `{}`} {
		err := agg.Process(context.Background(), &queue.Job{Payload: []byte(payload)})
		require.Error(t, err)
		assert.True(t, queue.IsPermanent(err))
	}
}
