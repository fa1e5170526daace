package rating

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

// SQLStore implements Store on the relational data store
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store on an existing database handle
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// PublishedRatings projects only the rating column of published reviews
func (s *SQLStore) PublishedRatings(ctx context.Context, productID string) ([]int, error) {
	query := `
		SELECT rating
		FROM reviews
		WHERE product_id = $1 AND published = true
	`

	var ratings []int
	if err := s.db.SelectContext(ctx, &ratings, query, productID); err != nil {
		return nil, fmt.Errorf("failed to select ratings: %w", err)
	}
	return ratings, nil
}

// ProductIDsWithPublishedReviews lists every product that has at least one
// published review, for the batch backfill.
func (s *SQLStore) ProductIDsWithPublishedReviews(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT product_id FROM reviews WHERE published = true`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list products with published reviews: %w", err)
	}
	return ids, nil
}

// UpdateProductRating writes average, count and histogram in one statement
func (s *SQLStore) UpdateProductRating(ctx context.Context, productID string, snap Snapshot) error {
	statsJSON, err := json.Marshal(statsKeys(snap.Stats))
	if err != nil {
		return fmt.Errorf("failed to marshal rating stats: %w", err)
	}

	var avg sql.NullFloat64
	if snap.AverageRating != nil {
		avg = sql.NullFloat64{Float64: *snap.AverageRating, Valid: true}
	}

	query := `
		UPDATE products
		SET average_rating = $1,
		    review_count = $2,
		    rating_stats = $3,
		    updated_at = NOW()
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, avg, snap.ReviewCount, statsJSON, productID)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// statsKeys converts the histogram to string keys for jsonb storage
func statsKeys(stats map[int]int) map[string]int {
	out := make(map[string]int, len(stats))
	for star, count := range stats {
		out[strconv.Itoa(star)] = count
	}
	return out
}
