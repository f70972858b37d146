package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

type MoodHandler struct {
	moodService *service.MoodService
}

func NewMoodHandler(moodService *service.MoodService) *MoodHandler {
	return &MoodHandler{
		moodService: moodService,
	}
}

// Create records a mood check-in
// POST /api/v1/moods
func (h *MoodHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.moodService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessWithMessage(c, "mood recorded", item)
}

// List lists mood check-ins
// GET /api/v1/moods
func (h *MoodHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pageParams(c)
	items, total, err := h.moodService.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}
