package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Customer is a shop customer who leaves reviews
type Customer struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Product is a shop product carrying its denormalized rating snapshot
type Product struct {
	ID            string      `db:"id" json:"id"`
	Title         string      `db:"title" json:"title"`
	Handle        string      `db:"handle" json:"handle"`
	Description   string      `db:"description" json:"description"`
	AverageRating *float64    `db:"average_rating" json:"averageRating"`
	ReviewCount   int         `db:"review_count" json:"reviewCount"`
	RatingStats   RatingStats `db:"rating_stats" json:"ratingStats"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// Review is a customer review of a product
type Review struct {
	ID         string    `db:"id" json:"id"`
	ProductID  string    `db:"product_id" json:"productId"`
	CustomerID string    `db:"customer_id" json:"customerId"`
	Rating     int       `db:"rating" json:"rating"`
	Title      *string   `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Media      MediaList `db:"media" json:"media"`
	Published  bool      `db:"published" json:"published"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Media is one attachment on a review. Videos acquire a thumbnail URL once
// the background extractor has processed them.
type Media struct {
	Type         string  `json:"type"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
}

// MediaList maps a review's media array onto a JSONB column
type MediaList []Media

// Value implements driver.Valuer
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *MediaList) Scan(src any) error {
	return scanJSON(src, m, "media list")
}

// RatingStats maps the {"1"..."5": count} histogram onto a JSONB column
type RatingStats map[string]int

// Value implements driver.Valuer
func (r RatingStats) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner
func (r *RatingStats) Scan(src any) error {
	return scanJSON(src, r, "rating stats")
}

func scanJSON(src, dest any, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, what)
	}
}
