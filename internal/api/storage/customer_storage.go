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

// CustomerStorage persists customers
type CustomerStorage struct {
	db *sqlx.DB
}

// NewCustomerStorage creates a customer storage
func NewCustomerStorage(db *sqlx.DB) *CustomerStorage {
	return &CustomerStorage{db: db}
}

// UpsertByEmail creates a customer or returns the existing one for the
// email, refreshing the name either way.
func (s *CustomerStorage) UpsertByEmail(ctx context.Context, email, name string) (*domain.Customer, error) {
	query := `
		INSERT INTO customers (id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, email, name, created_at, updated_at`

	var customer domain.Customer
	if err := s.db.GetContext(ctx, &customer, query, uuid.New().String(), email, name); err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return &customer, nil
}

// GetByID fetches one customer
func (s *CustomerStorage) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT id, email, name, created_at, updated_at FROM customers WHERE id = $1`

	var customer domain.Customer
	if err := s.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
