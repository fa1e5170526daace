package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/shoplio/review-backend/internal/api/handler"
)

// Config wires the router's handlers
type Config struct {
	Logger    *slog.Logger
	Customers *handler.CustomerHandler
	Products  *handler.ProductHandler
	Reviews   *handler.ReviewHandler
	Health    *handler.HealthHandler
	GinMode   string
}

// New builds the gin engine with middleware and all routes registered
func New(cfg *Config) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(cfg.Logger))
	engine.Use(CORSMiddleware())

	engine.GET("/health", cfg.Health.Check)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/customers", cfg.Customers.Create)

		v1.GET("/products", cfg.Products.List)
		v1.POST("/products", cfg.Products.Create)
		v1.GET("/products/:id/reviews", cfg.Products.ListReviews)

		v1.GET("/reviews", cfg.Reviews.List)
		v1.POST("/reviews", cfg.Reviews.Create)
		v1.GET("/reviews/:id", cfg.Reviews.Get)
		v1.PATCH("/reviews/:id", cfg.Reviews.Update)
		v1.DELETE("/reviews/:id", cfg.Reviews.Delete)
	}

	return engine
}
