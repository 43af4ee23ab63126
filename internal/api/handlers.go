package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/taskboard/internal/metrics"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/tasks"
	"github.com/tgienger/taskboard/internal/validation"
	"go.uber.org/zap"
)

// TaskHandler serves the /api/tasks routes
type TaskHandler struct {
	svc       *tasks.Service
	validator *validation.Validator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewTaskHandler creates a handler over svc
func NewTaskHandler(svc *tasks.Service, logger *zap.Logger, m *metrics.Metrics) *TaskHandler {
	return &TaskHandler{
		svc:       svc,
		validator: validation.New(),
		logger:    logger,
		metrics:   m,
	}
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	count := len(list)
	h.metrics.RecordTaskOperation("list", "ok")
	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    list,
		Count:   &count,
	})
}

// GetTask handles GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id := taskID(c)
	if res := h.validator.ID(id); !res.Valid {
		h.reject(c, "get", res)
		return
	}

	task, ok, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	if !ok {
		h.notFound(c, "get", id)
		return
	}

	h.metrics.RecordTaskOperation("get", "ok")
	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: task})
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var in models.TaskInput
	if !bindJSON(c, &in) {
		h.reject(c, "create", validation.BadBody())
		return
	}

	fields, res := h.validator.Task(in)
	if !res.Valid {
		h.reject(c, "create", res)
		return
	}

	task, err := h.svc.Create(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, "create", err)
		return
	}

	h.logger.Info("task created", zap.String("task_id", task.ID))
	h.metrics.RecordTaskOperation("create", "ok")
	c.JSON(http.StatusCreated, models.Envelope{
		Success: true,
		Data:    task,
		Message: "Task created successfully",
	})
}

// UpdateTask handles PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := taskID(c)
	res := h.validator.ID(id)

	var in models.TaskInput
	var fields models.Fields
	if bindJSON(c, &in) {
		var bodyRes validation.Result
		fields, bodyRes = h.validator.Task(in)
		res = res.Merge(bodyRes)
	} else {
		res = res.Merge(validation.BadBody())
	}
	if !res.Valid {
		h.reject(c, "update", res)
		return
	}

	task, ok, err := h.svc.Replace(c.Request.Context(), id, fields)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	if !ok {
		h.notFound(c, "update", id)
		return
	}

	h.logger.Info("task updated", zap.String("task_id", id))
	h.metrics.RecordTaskOperation("update", "ok")
	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    task,
		Message: "Task updated successfully",
	})
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	id := taskID(c)
	res := h.validator.ID(id)

	var in models.StatusInput
	var status models.Status
	if bindJSON(c, &in) {
		var bodyRes validation.Result
		status, bodyRes = h.validator.Status(in)
		res = res.Merge(bodyRes)
	} else {
		res = res.Merge(validation.BadBody())
	}
	if !res.Valid {
		h.reject(c, "status", res)
		return
	}

	task, ok, err := h.svc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		h.fail(c, "status", err)
		return
	}
	if !ok {
		h.notFound(c, "status", id)
		return
	}

	h.logger.Info("task status updated", zap.String("task_id", id), zap.String("status", string(status)))
	h.metrics.RecordTaskOperation("status", "ok")
	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    task,
		Message: "Task status updated successfully",
	})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := taskID(c)
	if res := h.validator.ID(id); !res.Valid {
		h.reject(c, "delete", res)
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete", err)
		return
	}
	if !deleted {
		h.notFound(c, "delete", id)
		return
	}

	h.logger.Info("task deleted", zap.String("task_id", id))
	h.metrics.RecordTaskOperation("delete", "ok")
	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// reject hands a validation failure to the error middleware
func (h *TaskHandler) reject(c *gin.Context, op string, res validation.Result) {
	h.metrics.RecordTaskOperation(op, "invalid")
	_ = c.Error(&ValidationError{Details: res.Errors})
}

// fail hands a store or internal error to the error middleware
func (h *TaskHandler) fail(c *gin.Context, op string, err error) {
	h.metrics.RecordTaskOperation(op, "error")
	_ = c.Error(err)
}

func (h *TaskHandler) notFound(c *gin.Context, op, id string) {
	h.metrics.RecordTaskOperation(op, "not_found")
	h.logger.Warn("task not found", zap.String("operation", op), zap.String("task_id", id))
	c.JSON(http.StatusNotFound, models.Envelope{Success: false, Error: msgNotFound})
}

// taskID reads the id path parameter. UUIDs compare case-insensitively and
// are stored lowercase.
func taskID(c *gin.Context) string {
	return strings.ToLower(c.Param("id"))
}

// bindJSON decodes the request body into dst. An empty body decodes to the zero value.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	return err == nil || errors.Is(err, io.EOF)
}
