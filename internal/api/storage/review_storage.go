package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shoplio/review-backend/internal/api/domain"
)

const defaultPageSize = 20

// ReviewFilter narrows and paginates review lists
type ReviewFilter struct {
	ProductID     string
	PublishedOnly bool
	Cursor        string
	PageSize      int
}

// ReviewUpdate holds the patchable review fields; nil means unchanged
type ReviewUpdate struct {
	Published *bool
	Title     *string
	Content   *string
}

// ReviewStorage persists reviews
type ReviewStorage struct {
	db *sqlx.DB
}

// NewReviewStorage creates a review storage
func NewReviewStorage(db *sqlx.DB) *ReviewStorage {
	return &ReviewStorage{db: db}
}

const reviewColumns = `id, product_id, customer_id, rating, title, content, media, published, created_at, updated_at`

// Create inserts an unpublished review
func (s *ReviewStorage) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `
		INSERT INTO reviews (id, product_id, customer_id, rating, title, content, media, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + reviewColumns

	var created domain.Review
	err := s.db.GetContext(ctx, &created, query,
		uuid.New().String(),
		review.ProductID,
		review.CustomerID,
		review.Rating,
		review.Title,
		review.Content,
		review.Media,
		review.Published,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &created, nil
}

// GetByID fetches one review
func (s *ReviewStorage) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	var review domain.Review
	if err := s.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// List returns one page of reviews, newest first, plus the cursor for the
// next page when more rows remain.
func (s *ReviewStorage) List(ctx context.Context, filter ReviewFilter) ([]domain.Review, string, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	conditions := []string{}
	args := []any{}

	if filter.ProductID != "" {
		args = append(args, filter.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = true")
	}
	if filter.Cursor != "" {
		createdAt, id, err := DecodeCursor(filter.Cursor)
		if err != nil {
			return nil, "", err
		}
		args = append(args, createdAt, id)
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	// fetch one extra row to learn whether a next page exists
	args = append(args, pageSize+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	reviews := []domain.Review{}
	if err := s.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, "", fmt.Errorf("failed to list reviews: %w", err)
	}

	nextCursor := ""
	if len(reviews) > pageSize {
		reviews = reviews[:pageSize]
		last := reviews[len(reviews)-1]
		nextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}
	return reviews, nextCursor, nil
}

// Update patches a review and returns the updated row
func (s *ReviewStorage) Update(ctx context.Context, id string, update ReviewUpdate) (*domain.Review, error) {
	sets := []string{}
	args := []any{}

	if update.Published != nil {
		args = append(args, *update.Published)
		sets = append(sets, fmt.Sprintf("published = $%d", len(args)))
	}
	if update.Title != nil {
		args = append(args, *update.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if update.Content != nil {
		args = append(args, *update.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE reviews SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), reviewColumns)

	var review domain.Review
	if err := s.db.GetContext(ctx, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return &review, nil
}

// Delete removes a review and returns the deleted row
func (s *ReviewStorage) Delete(ctx context.Context, id string) (*domain.Review, error) {
	query := `DELETE FROM reviews WHERE id = $1 RETURNING ` + reviewColumns

	var review domain.Review
	if err := s.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete review: %w", err)
	}
	return &review, nil
}
