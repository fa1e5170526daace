package thumbnail

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLReviewStore reads and patches review media stored as JSONB
type SQLReviewStore struct {
	db *sqlx.DB
}

// NewSQLReviewStore creates a review media store
func NewSQLReviewStore(db *sqlx.DB) *SQLReviewStore {
	return &SQLReviewStore{db: db}
}

// GetReviewMedia loads the media array of one review
func (s *SQLReviewStore) GetReviewMedia(ctx context.Context, reviewID string) ([]Media, error) {
	var raw []byte
	query := `SELECT media FROM reviews WHERE id = $1`
	if err := s.db.GetContext(ctx, &raw, query, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to query review media: %w", err)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var media []Media
	if err := json.Unmarshal(raw, &media); err != nil {
		return nil, fmt.Errorf("failed to decode review media: %w", err)
	}
	return media, nil
}

// UpdateReviewMedia replaces the media array of one review
func (s *SQLReviewStore) UpdateReviewMedia(ctx context.Context, reviewID string, media []Media) error {
	raw, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("failed to encode review media: %w", err)
	}

	query := `UPDATE reviews SET media = $1, updated_at = NOW() WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, raw, reviewID)
	if err != nil {
		return fmt.Errorf("failed to update review media: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrReviewNotFound
	}
	return nil
}
