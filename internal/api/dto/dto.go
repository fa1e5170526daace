package dto

import "github.com/shoplio/review-backend/internal/api/domain"

// CreateCustomerRequest creates or fetches a customer by email
type CreateCustomerRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

// CreateProductRequest registers a product
type CreateProductRequest struct {
	Title       string `json:"title" binding:"required"`
	Handle      string `json:"handle" binding:"required"`
	Description string `json:"description"`
}

// MediaInput is one attachment on a new review
type MediaInput struct {
	Type string `json:"type" binding:"required,oneof=image video"`
	URL  string `json:"url" binding:"required,url"`
}

// CreateReviewRequest submits a new review
type CreateReviewRequest struct {
	ProductID  string       `json:"productId" binding:"required,uuid"`
	CustomerID string       `json:"customerId" binding:"required,uuid"`
	Rating     int          `json:"rating" binding:"required,min=1,max=5"`
	Title      *string      `json:"title"`
	Content    string       `json:"content" binding:"required"`
	Media      []MediaInput `json:"media" binding:"dive"`
}

// UpdateReviewRequest patches a review; nil fields are left untouched
type UpdateReviewRequest struct {
	Published *bool   `json:"published"`
	Title     *string `json:"title"`
	Content   *string `json:"content"`
}

// ListReviewsQuery paginates review lists
type ListReviewsQuery struct {
	Cursor   string `form:"cursor"`
	PageSize int    `form:"pageSize,default=20" binding:"omitempty,min=1,max=100"`
}

// ReviewListResponse is a page of reviews with the cursor for the next page
type ReviewListResponse struct {
	Data       []domain.Review `json:"data"`
	NextCursor string          `json:"nextCursor,omitempty"`
	HasMore    bool            `json:"hasMore"`
}

// ProductListResponse wraps the product list
type ProductListResponse struct {
	Data []domain.Product `json:"data"`
}

// ErrorResponse carries a client-facing error message
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service and dependency status
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ToMediaList converts request media inputs to the domain representation
func ToMediaList(inputs []MediaInput) domain.MediaList {
	media := make(domain.MediaList, 0, len(inputs))
	for _, in := range inputs {
		media = append(media, domain.Media{Type: in.Type, URL: in.URL})
	}
	return media
}
