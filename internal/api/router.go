package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tgienger/taskboard/internal/metrics"
	"github.com/tgienger/taskboard/internal/models"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig carries the settings NewRouter needs besides the handler
type RouterConfig struct {
	Development bool
	CORSOrigin  string
}

// NewRouter builds the HTTP engine
func NewRouter(h *TaskHandler, store Pinger, logger *zap.Logger, m *metrics.Metrics, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(
		requestLogger(logger),
		instrument(m),
		errorHandler(logger, cfg.Development),
		recovery(),
		corsMiddleware(cfg.CORSOrigin),
	)

	health := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	}
	r.GET("/health", health)
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/health", health)

	tasks := api.Group("/tasks")
	tasks.GET("", h.ListTasks)
	tasks.GET("/:id", h.GetTask)
	tasks.POST("", h.CreateTask)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.PATCH("/:id/status", h.UpdateTaskStatus)
	tasks.DELETE("/:id", h.DeleteTask)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.Envelope{Success: false, Error: "Route not found"})
	})

	return r
}
