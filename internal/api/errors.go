package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/models"
	"go.uber.org/zap"
)

const (
	msgValidationFailed = "Validation failed"
	msgNotFound         = "Task not found"
	msgConstraint       = "Database constraint violation"
	msgInternal         = "Internal server error"
)

// ValidationError carries field-level failures for a 400 response
type ValidationError struct {
	Details []models.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// errorHandler translates errors attached to the context into the response envelope.
// It is the only place that maps error categories to status codes.
func errorHandler(logger *zap.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			logger.Warn("request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Any("details", verr.Details),
			)
			c.JSON(http.StatusBadRequest, models.Envelope{
				Success: false,
				Error:   msgValidationFailed,
				Details: verr.Details,
			})

		case errors.Is(err, db.ErrConstraint):
			logger.Warn("constraint violation",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.JSON(http.StatusBadRequest, models.Envelope{
				Success: false,
				Error:   msgConstraint,
			})

		default:
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			resp := models.Envelope{Success: false, Error: msgInternal}
			if development {
				resp.Stack = err.Error()
			}
			c.JSON(http.StatusInternalServerError, resp)
		}
	}
}

// recovery turns a handler panic into an error for errorHandler
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(gin.DefaultErrorWriter, func(c *gin.Context, recovered any) {
		_ = c.Error(fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}
