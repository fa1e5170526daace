package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shoplio/review-backend/internal/api/domain"
)

// ErrNotFound signals the requested row does not exist
var ErrNotFound = errors.New("not found")

// ProductStorage persists products
type ProductStorage struct {
	db *sqlx.DB
}

// NewProductStorage creates a product storage
func NewProductStorage(db *sqlx.DB) *ProductStorage {
	return &ProductStorage{db: db}
}

const productColumns = `id, title, handle, description, average_rating, review_count, rating_stats, created_at, updated_at`

// Create inserts a product with an empty rating snapshot
func (s *ProductStorage) Create(ctx context.Context, title, handle, description string) (*domain.Product, error) {
	query := `
		INSERT INTO products (id, title, handle, description, review_count, rating_stats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, '{}', NOW(), NOW())
		RETURNING ` + productColumns

	var product domain.Product
	if err := s.db.GetContext(ctx, &product, query, uuid.New().String(), title, handle, description); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// GetByID fetches one product
func (s *ProductStorage) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product domain.Product
	if err := s.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// List returns all products, newest first
func (s *ProductStorage) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`

	products := []domain.Product{}
	if err := s.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
