package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

type TextHandler struct {
	textService *service.TextAnalysisService
}

func NewTextHandler(textService *service.TextAnalysisService) *TextHandler {
	return &TextHandler{
		textService: textService,
	}
}

// Analyze analyzes text inline without storing it
// POST /api/v1/analyze
func (h *TextHandler) Analyze(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.textService.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.ParamError(c, "text has nothing to analyze")
		case errors.Is(err, service.ErrAnalysisUnavailable):
			_ = c.Error(err)
			response.ServerError(c, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.Success(c, result)
}
