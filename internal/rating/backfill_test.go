package rating

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplio/review-backend/internal/queue"
)

type fakeBackfillStore struct {
	ids     []string
	listErr error
}

func (f *fakeBackfillStore) ProductIDsWithPublishedReviews(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func TestBackfillEnqueuesRecomputePerProduct(t *testing.T) {
	ctx := context.Background()
	broker := queue.NewMemoryBroker()
	jobQueue := queue.New(broker, testLogger())
	store := &fakeBackfillStore{ids: []string{"prod-1", "prod-2", "prod-3"}}

	count, err := NewBackfiller(store, jobQueue, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	length, err := broker.QueueLength(ctx, queue.QueueRatingCalculation)
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	for _, want := range store.ids {
		job, err := broker.Dequeue(ctx, queue.QueueRatingCalculation)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, queue.JobTypeRatingCalculation, job.Type)

		var payload queue.RatingCalculationPayload
		require.NoError(t, json.Unmarshal(job.Payload, &payload))
		assert.Equal(t, want, payload.ProductID)
	}
}

func TestBackfillNoProductsEnqueuesNothing(t *testing.T) {
	ctx := context.Background()
	broker := queue.NewMemoryBroker()
	jobQueue := queue.New(broker, testLogger())

	count, err := NewBackfiller(&fakeBackfillStore{}, jobQueue, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	length, err := broker.QueueLength(ctx, queue.QueueRatingCalculation)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestBackfillStoreErrorFailsRun(t *testing.T) {
	listErr := errors.New("db unavailable")
	jobQueue := queue.New(queue.NewMemoryBroker(), testLogger())

	count, err := NewBackfiller(&fakeBackfillStore{listErr: listErr}, jobQueue, testLogger()).Run(context.Background())
	require.ErrorIs(t, err, listErr)
	assert.Equal(t, 0, count)
}

func TestBackfillStopsOnEnqueueError(t *testing.T) {
	broker := queue.NewMemoryBroker()
	jobQueue := queue.New(broker, testLogger())
	require.NoError(t, broker.Close())

	count, err := NewBackfiller(&fakeBackfillStore{ids: []string{"prod-1", "prod-2"}}, jobQueue, testLogger()).Run(context.Background())
	require.ErrorIs(t, err, queue.ErrBrokerClosed)
	assert.Equal(t, 0, count)
}
