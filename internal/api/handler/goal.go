package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

// Create creates a goal
// POST /api/v1/goals
func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	target, err := parseDate(req.TargetDate)
	if err != nil {
		response.ParamError(c, "invalid target_date")
		return
	}

	item, err := h.goalService.Create(c.Request.Context(), userID, &req, target)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessWithMessage(c, "goal created", item)
}

// List lists goals
// GET /api/v1/goals
func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pageParams(c)
	items, total, err := h.goalService.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// UpdateProgress sets goal progress
// POST /api/v1/goals/:id/progress
func (h *GoalHandler) UpdateProgress(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	goalID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGoalProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.goalService.UpdateProgress(c.Request.Context(), userID, goalID, *req.Progress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrGoalPermission):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrGoalAbandoned):
			response.ParamError(c, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "progress updated", item)
}
