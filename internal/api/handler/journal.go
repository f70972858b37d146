package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

type JournalHandler struct {
	journalService *service.JournalService
}

func NewJournalHandler(journalService *service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
	}
}

// Create stores an entry and queues its analysis.
// POST /api/v1/entries
func (h *JournalHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.journalService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "entry created", resp)
}

// GET /api/v1/entries
func (h *JournalHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pageParams(c)
	items, total, err := h.journalService.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		serverError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get returns an entry with its latest analysis.
// GET /api/v1/entries/:id
func (h *JournalHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.journalService.Get(c.Request.Context(), userID, entryID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, detail)
}

// Update writes a new version of the entry.
// PUT /api/v1/entries/:id
func (h *JournalHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.journalService.Update(c.Request.Context(), userID, entryID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "entry updated", resp)
}

// DELETE /api/v1/entries/:id
func (h *JournalHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.journalService.Delete(c.Request.Context(), userID, entryID); err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "entry deleted", nil)
}

// GET /api/v1/entries/:id/versions
func (h *JournalHandler) Versions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.journalService.Versions(c.Request.Context(), userID, entryID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, items)
}

func (h *JournalHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.ParamError(c, "entry content has no analyzable text")
	case errors.Is(err, service.ErrEntryNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrEntryPermission):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrEntryEdited):
		response.DuplicateError(c, err.Error())
	default:
		serverError(c, err)
	}
}
