package rating

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shoplio/review-backend/internal/queue"
)

// Enqueuer adds background jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName, jobType string, payload any) (string, error)
}

// BackfillStore lists the products whose rating snapshots need recomputing
type BackfillStore interface {
	ProductIDsWithPublishedReviews(ctx context.Context) ([]string, error)
}

// Backfiller enqueues a recompute job for every product that has published
// reviews. Recomputes are idempotent, so rerunning the backfill is safe.
type Backfiller struct {
	store  BackfillStore
	queue  Enqueuer
	logger *slog.Logger
}

// NewBackfiller creates a backfiller
func NewBackfiller(store BackfillStore, q Enqueuer, logger *slog.Logger) *Backfiller {
	return &Backfiller{store: store, queue: q, logger: logger}
}

// Run enqueues one rating-calculation job per product and returns how many
// were enqueued.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	ids, err := b.store.ProductIDsWithPublishedReviews(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products with published reviews: %w", err)
	}

	for enqueued, id := range ids {
		_, err := b.queue.Enqueue(ctx, queue.QueueRatingCalculation, queue.JobTypeRatingCalculation, queue.RatingCalculationPayload{
			ProductID: id,
		})
		if err != nil {
			return enqueued, fmt.Errorf("failed to enqueue recompute for product %s: %w", id, err)
		}
	}

	b.logger.Info("Rating recompute jobs enqueued",
		slog.Int("products", len(ids)),
	)
	return len(ids), nil
}
