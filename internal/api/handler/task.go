package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Create creates a task
// POST /api/v1/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		response.ParamError(c, "invalid due_date")
		return
	}

	item, err := h.taskService.Create(c.Request.Context(), userID, &req, due)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessWithMessage(c, "task created", item)
}

// List lists tasks, optionally by status
// GET /api/v1/tasks?status=pending
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status := c.Query("status")
	if status != "" && !model.IsTaskStatus(status) {
		response.ParamError(c, "invalid status")
		return
	}

	page, pageSize := pageParams(c)
	items, total, err := h.taskService.List(c.Request.Context(), userID, status, page, pageSize)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Complete marks a pending task completed
// POST /api/v1/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.taskService.Complete(c.Request.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTaskPermission):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrTaskCompleted):
			response.DuplicateError(c, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "task completed", item)
}
