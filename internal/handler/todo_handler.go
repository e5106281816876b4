package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoapp/internal/model"
	"todoapp/internal/repository"
	"todoapp/internal/service/todo"
	"todoapp/pkg/logger"
	"todoapp/pkg/metrics"
)

type TodoService interface {
	List(ctx context.Context, userID int64) ([]model.Todo, error)
	Create(ctx context.Context, userID int64, title string) (*model.Todo, error)
	SetCompleted(ctx context.Context, userID, todoID int64, completed bool) (*model.Todo, error)
	Delete(ctx context.Context, userID, todoID int64) error
}

type TodoHandler struct {
	todos  TodoService
	logger *zap.Logger
}

func NewTodoHandler(todos TodoService, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, logger: logger}
}

// principalFrom reads the principal stored by the session middleware.
func principalFrom(c *gin.Context) (*model.Principal, bool) {
	v, exists := c.Get("principal")
	if !exists {
		return nil, false
	}
	p, ok := v.(*model.Principal)
	return p, ok
}

// List handles GET /api/todos.
func (h *TodoHandler) List(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	todos, err := h.todos.List(c.Request.Context(), p.UserID)
	if err != nil {
		h.fail(c, "list", err, "failed to fetch todos")
		return
	}

	metrics.IncrementTodoOp("list", "ok")
	c.JSON(http.StatusOK, todos)
}

// Create handles POST /api/todos.
func (h *TodoHandler) Create(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncrementTodoOp("create", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.todos.Create(c.Request.Context(), p.UserID, req.Title)
	if err != nil {
		h.fail(c, "create", err, "failed to create todo")
		return
	}

	metrics.IncrementTodoOp("create", "ok")
	c.JSON(http.StatusCreated, t)
}

// Update handles PUT /api/todos, toggling the completed flag.
func (h *TodoHandler) Update(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		ID        *int64 `json:"id" binding:"required"`
		Completed *bool  `json:"completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncrementTodoOp("toggle", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.todos.SetCompleted(c.Request.Context(), p.UserID, *req.ID, *req.Completed)
	if err != nil {
		h.fail(c, "toggle", err, "failed to update todo")
		return
	}

	metrics.IncrementTodoOp("toggle", "ok")
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /api/todos.
func (h *TodoHandler) Delete(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		ID *int64 `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncrementTodoOp("delete", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.todos.Delete(c.Request.Context(), p.UserID, *req.ID); err != nil {
		h.fail(c, "delete", err, "failed to delete todo")
		return
	}

	metrics.IncrementTodoOp("delete", "ok")
	c.JSON(http.StatusOK, gin.H{"message": "todo deleted"})
}

// fail maps service errors onto the response taxonomy: not-found → 404,
// validation → 400, anything else → 500 with the cause logged only.
func (h *TodoHandler) fail(c *gin.Context, op string, err error, msg string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		metrics.IncrementTodoOp(op, "not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
	case errors.Is(err, todo.ErrTitleRequired),
		errors.Is(err, todo.ErrTitleTooLong),
		errors.Is(err, repository.ErrInvalidField):
		metrics.IncrementTodoOp(op, "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.WithTrace(c.Request.Context(), h.logger).Error("Todo operation failed",
			zap.String("op", op), zap.Error(err))
		metrics.IncrementTodoOp(op, "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
