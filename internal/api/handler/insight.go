package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

// defaultInsightWindow is used when neither bound is given.
const defaultInsightWindow = 30 * 24 * time.Hour

type InsightHandler struct {
	insightService *service.InsightService
}

func NewInsightHandler(insightService *service.InsightService) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
	}
}

// Summary aggregates analyses in [from, to)
// GET /api/v1/insights?from=&to=
func (h *InsightHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	from, err := parseDate(c.Query("from"))
	if err != nil {
		response.ParamError(c, "invalid from")
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		response.ParamError(c, "invalid to")
		return
	}
	if from.IsZero() && to.IsZero() {
		to = time.Now().UTC()
		from = to.Add(-defaultInsightWindow)
	}

	summary, err := h.insightService.Summary(c.Request.Context(), userID, from, to)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRange) {
			response.ParamError(c, "from must be before to")
			return
		}
		serverError(c, err)
		return
	}

	response.Success(c, summary)
}
