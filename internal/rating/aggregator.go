package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shoplio/review-backend/internal/queue"
)

// ErrProductNotFound signals a recompute against a product that no longer
// exists; a data-consistency problem, not a transient failure.
var ErrProductNotFound = errors.New("product not found")

// Snapshot is a product's denormalized rating state: review count, average
// rounded to two decimals (nil iff count is zero) and the star histogram.
type Snapshot struct {
	AverageRating *float64
	ReviewCount   int
	Stats         map[int]int
}

// Store is the data access the aggregator needs
type Store interface {
	// PublishedRatings returns the rating of every published review for
	// the product, and nothing else.
	PublishedRatings(ctx context.Context, productID string) ([]int, error)

	// UpdateProductRating writes all snapshot fields atomically as one
	// update. Returns ErrProductNotFound when the row does not exist.
	UpdateProductRating(ctx context.Context, productID string, snap Snapshot) error
}

// Aggregator recomputes product rating snapshots from scratch. Each run is
// a full recompute, so it is idempotent and safe to run concurrently for
// the same product: the last write wins.
type Aggregator struct {
	store  Store
	logger *slog.Logger
}

// NewAggregator creates a rating aggregator
func NewAggregator(store Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// Compute builds a snapshot from a set of published review ratings. An
// empty set resets the snapshot: nil average, zero count, empty histogram.
func Compute(ratings []int) Snapshot {
	if len(ratings) == 0 {
		return Snapshot{Stats: map[int]int{}}
	}

	stats := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	sum := 0
	for _, r := range ratings {
		stats[r]++
		sum += r
	}

	// Round half-up on the third decimal, keep two
	avg := math.Round(float64(sum)/float64(len(ratings))*100) / 100

	return Snapshot{
		AverageRating: &avg,
		ReviewCount:   len(ratings),
		Stats:         stats,
	}
}

// RecomputeProductRating reads every published review for the product and
// writes the resulting snapshot.
func (a *Aggregator) RecomputeProductRating(ctx context.Context, productID string) error {
	ratings, err := a.store.PublishedRatings(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to read ratings for product %s: %w", productID, err)
	}

	snap := Compute(ratings)

	if err := a.store.UpdateProductRating(ctx, productID, snap); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return queue.Permanent(err)
		}
		return fmt.Errorf("failed to update rating for product %s: %w", productID, err)
	}

	a.logger.Info("Product rating recomputed",
		slog.String("product_id", productID),
		slog.Int("review_count", snap.ReviewCount),
	)
	return nil
}

// Process handles jobs from the rating-calculation queue
func (a *Aggregator) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.RatingCalculationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Permanent(fmt.Errorf("invalid rating payload: %w", err))
	}
	if payload.ProductID == "" {
		return queue.Permanent(errors.New("rating payload missing product id"))
	}

	return a.RecomputeProductRating(ctx, payload.ProductID)
}
