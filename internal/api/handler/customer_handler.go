package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoplio/review-backend/internal/api/dto"
	"github.com/shoplio/review-backend/internal/api/storage"
)

// CustomerHandler serves customer endpoints
type CustomerHandler struct {
	customers *storage.CustomerStorage
	logger    *slog.Logger
}

// NewCustomerHandler creates a customer handler
func NewCustomerHandler(customers *storage.CustomerStorage, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

// Create creates a customer, or returns the existing one for the email
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	customer, err := h.customers.UpsertByEmail(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		h.logger.Error("Failed to upsert customer",
			slog.String("email", req.Email),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, customer)
}
