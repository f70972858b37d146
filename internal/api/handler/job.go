package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

type JobHandler struct {
	analysisService *service.AnalysisService
}

func NewJobHandler(analysisService *service.AnalysisService) *JobHandler {
	return &JobHandler{
		analysisService: analysisService,
	}
}

// Analyze queues a re-analysis, or answers with the active job
// POST /api/v1/entries/:id/analyze
func (h *JobHandler) Analyze(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	jobID, err := h.analysisService.AnalyzeEntry(c.Request.Context(), userID, entryID)
	var dup *service.DuplicateActiveJobError
	switch {
	case err == nil:
		response.SuccessWithMessage(c, "analysis queued", dto.EnqueueResponse{JobID: jobID, EntryID: entryID})
	case errors.As(err, &dup):
		response.SuccessWithMessage(c, "analysis already in progress", dto.EnqueueResponse{
			JobID:     dup.JobID,
			EntryID:   dup.EntryID,
			Duplicate: true,
		})
	case errors.Is(err, service.ErrInvalidInput):
		response.ParamError(c, "entry content has no analyzable text")
	case errors.Is(err, service.ErrEntryNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrEntryPermission):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrEntryEdited):
		response.ParamError(c, "only the latest version of an entry can be analyzed")
	default:
		serverError(c, err)
	}
}

// Status reports a job and, once it succeeded, its annotation.
// GET /api/v1/jobs/:id
func (h *JobHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.analysisService.Status(c.Request.Context(), userID, jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// POST /api/v1/jobs/:id/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.analysisService.Cancel(c.Request.Context(), userID, jobID); err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "analysis cancelled", nil)
}

func (h *JobHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrJobPermission):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrJobFinished):
		response.DuplicateError(c, err.Error())
	default:
		serverError(c, err)
	}
}
