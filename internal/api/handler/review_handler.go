package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoplio/review-backend/internal/api/domain"
	"github.com/shoplio/review-backend/internal/api/dto"
	"github.com/shoplio/review-backend/internal/api/storage"
	"github.com/shoplio/review-backend/internal/queue"
)

// ReviewHandler serves review endpoints and enqueues the follow-up jobs
type ReviewHandler struct {
	reviews   *storage.ReviewStorage
	products  *storage.ProductStorage
	customers *storage.CustomerStorage
	queue     Enqueuer
	logger    *slog.Logger
}

// ReviewHandlerConfig wires a review handler
type ReviewHandlerConfig struct {
	Reviews   *storage.ReviewStorage
	Products  *storage.ProductStorage
	Customers *storage.CustomerStorage
	Queue     Enqueuer
	Logger    *slog.Logger
}

// NewReviewHandler creates a review handler
func NewReviewHandler(cfg *ReviewHandlerConfig) *ReviewHandler {
	return &ReviewHandler{
		reviews:   cfg.Reviews,
		products:  cfg.Products,
		customers: cfg.Customers,
		queue:     cfg.Queue,
		logger:    cfg.Logger,
	}
}

// Create stores a review and schedules notification, rating recompute and
// thumbnail jobs. The review is created even when enqueueing fails: jobs are
// a side effect, not part of the write.
func (h *ReviewHandler) Create(c *gin.Context) {
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	product, err := h.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "product not found"})
			return
		}
		h.logger.Error("Failed to get product", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create review"})
		return
	}

	customer, err := h.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "customer not found"})
			return
		}
		h.logger.Error("Failed to get customer", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create review"})
		return
	}

	review, err := h.reviews.Create(ctx, &domain.Review{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		Rating:     req.Rating,
		Title:      req.Title,
		Content:    req.Content,
		Media:      dto.ToMediaList(req.Media),
	})
	if err != nil {
		h.logger.Error("Failed to create review", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create review"})
		return
	}

	h.enqueueReviewJobs(ctx, review, product, customer)

	c.JSON(http.StatusCreated, review)
}

// Get fetches one review
func (h *ReviewHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid review id"})
		return
	}

	review, err := h.reviews.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "review not found"})
			return
		}
		h.logger.Error("Failed to get review", slog.String("review_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to get review"})
		return
	}

	c.JSON(http.StatusOK, review)
}

// List returns one page of all reviews, newest first
func (h *ReviewHandler) List(c *gin.Context) {
	var query dto.ListReviewsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	reviews, nextCursor, err := h.reviews.List(c.Request.Context(), storage.ReviewFilter{
		Cursor:   query.Cursor,
		PageSize: query.PageSize,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid cursor"})
			return
		}
		h.logger.Error("Failed to list reviews", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list reviews"})
		return
	}

	c.JSON(http.StatusOK, dto.ReviewListResponse{
		Data:       reviews,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	})
}

// Update patches a review; a publish state change triggers a rating recompute
func (h *ReviewHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid review id"})
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), id, storage.ReviewUpdate{
		Published: req.Published,
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "review not found"})
			return
		}
		h.logger.Error("Failed to update review", slog.String("review_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to update review"})
		return
	}

	if req.Published != nil {
		h.enqueueRatingRecompute(c.Request.Context(), review.ProductID)
	}

	c.JSON(http.StatusOK, review)
}

// Delete removes a review and schedules a rating recompute for its product
func (h *ReviewHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid review id"})
		return
	}

	review, err := h.reviews.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "review not found"})
			return
		}
		h.logger.Error("Failed to delete review", slog.String("review_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to delete review"})
		return
	}

	h.enqueueRatingRecompute(c.Request.Context(), review.ProductID)

	c.Status(http.StatusNoContent)
}

// enqueueReviewJobs schedules every follow-up for a freshly created review.
// Failures are logged and swallowed.
func (h *ReviewHandler) enqueueReviewJobs(ctx context.Context, review *domain.Review, product *domain.Product, customer *domain.Customer) {
	title := ""
	if review.Title != nil {
		title = *review.Title
	}
	mediaURLs := make([]string, 0, len(review.Media))
	for _, m := range review.Media {
		mediaURLs = append(mediaURLs, m.URL)
	}

	h.enqueue(ctx, queue.QueueReviewNotifications, queue.JobTypeReviewNotification, queue.ReviewNotificationPayload{
		CustomerName: customer.Name,
		ProductTitle: product.Title,
		Rating:       review.Rating,
		Title:        title,
		Content:      review.Content,
		MediaURLs:    mediaURLs,
		ReviewID:     review.ID,
	})

	h.enqueueRatingRecompute(ctx, review.ProductID)

	for _, m := range review.Media {
		if m.Type != "video" {
			continue
		}
		h.enqueue(ctx, queue.QueueVideoThumbnail, queue.JobTypeVideoThumbnail, queue.VideoThumbnailPayload{
			VideoURL: m.URL,
			ReviewID: review.ID,
		})
	}
}

func (h *ReviewHandler) enqueueRatingRecompute(ctx context.Context, productID string) {
	h.enqueue(ctx, queue.QueueRatingCalculation, queue.JobTypeRatingCalculation, queue.RatingCalculationPayload{
		ProductID: productID,
	})
}

func (h *ReviewHandler) enqueue(ctx context.Context, queueName, jobType string, payload any) {
	if _, err := h.queue.Enqueue(ctx, queueName, jobType, payload); err != nil {
		h.logger.Error("Failed to enqueue job",
			slog.String("queue", queueName),
			slog.String("job_type", jobType),
			slog.Any("error", err),
		)
	}
}
