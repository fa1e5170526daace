package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoplio/review-backend/internal/api/dto"
	"github.com/shoplio/review-backend/internal/api/storage"
)

// ProductHandler serves product endpoints
type ProductHandler struct {
	products *storage.ProductStorage
	reviews  *storage.ReviewStorage
	logger   *slog.Logger
}

// NewProductHandler creates a product handler
func NewProductHandler(products *storage.ProductStorage, reviews *storage.ReviewStorage, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, reviews: reviews, logger: logger}
}

// Create registers a product
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), req.Title, req.Handle, req.Description)
	if err != nil {
		h.logger.Error("Failed to create product", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// List returns all products with their rating snapshots
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list products", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list products"})
		return
	}

	c.JSON(http.StatusOK, dto.ProductListResponse{Data: products})
}

// ListReviews returns one page of a product's published reviews
func (h *ProductHandler) ListReviews(c *gin.Context) {
	productID := c.Param("id")
	if _, err := uuid.Parse(productID); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid product id"})
		return
	}

	var query dto.ListReviewsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.products.GetByID(c.Request.Context(), productID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "product not found"})
			return
		}
		h.logger.Error("Failed to get product",
			slog.String("product_id", productID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to get product"})
		return
	}

	reviews, nextCursor, err := h.reviews.List(c.Request.Context(), storage.ReviewFilter{
		ProductID:     productID,
		PublishedOnly: true,
		Cursor:        query.Cursor,
		PageSize:      query.PageSize,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid cursor"})
			return
		}
		h.logger.Error("Failed to list product reviews",
			slog.String("product_id", productID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list reviews"})
		return
	}

	c.JSON(http.StatusOK, dto.ReviewListResponse{
		Data:       reviews,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	})
}
