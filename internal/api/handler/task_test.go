package handler

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

func taskRouter(h *TaskHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(mockAuth(userID))
	router.POST("/tasks", h.Create)
	router.GET("/tasks", h.List)
	router.POST("/tasks/:id/complete", h.Complete)
	return router
}

func TestTaskHandler_Create(t *testing.T) {
	svcs, _ := setupServices(t)
	router := taskRouter(NewTaskHandler(svcs.task), 31)

	resp := parseResponse(t, performRequest(router, "POST", "/tasks", dto.CreateTaskRequest{
		Title:    "Journal before bed",
		Priority: model.PriorityLow,
		DueDate:  "2026-12-01",
	}))

	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, "task created", resp.Message)
	data := dataMap(t, resp)
	assert.Equal(t, "Journal before bed", data["title"])
	assert.Equal(t, model.PriorityLow, data["priority"])
	assert.Equal(t, model.TaskStatusPending, data["status"])
	assert.Equal(t, "2026-12-01T00:00:00Z", data["due_date"])
}

func TestTaskHandler_Create_Invalid(t *testing.T) {
	svcs, _ := setupServices(t)
	router := taskRouter(NewTaskHandler(svcs.task), 31)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing title", map[string]interface{}{"priority": "low"}},
		{"unknown priority", map[string]interface{}{"title": "x", "priority": "urgent"}},
		{"bad due date", map[string]interface{}{"title": "x", "due_date": "next friday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := parseResponse(t, performRequest(router, "POST", "/tasks", tt.body))
			assert.Equal(t, response.CodeParamError, resp.Code)
		})
	}
}

func TestTaskHandler_ListAndComplete(t *testing.T) {
	svcs, ctx := setupServices(t)
	user := testutil.TestUser(t, ctx.DB)
	other := testutil.TestUser(t, ctx.DB)
	task := testutil.TestTask(t, ctx.DB, user.ID)
	testutil.TestTask(t, ctx.DB, user.ID)
	h := NewTaskHandler(svcs.task)
	router := taskRouter(h, user.ID)

	resp := parseResponse(t, performRequest(router, "GET", "/tasks", nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(2), dataMap(t, resp)["total"])

	path := fmt.Sprintf("/tasks/%d/complete", task.ID)
	resp = parseResponse(t, performRequest(taskRouter(h, other.ID), "POST", path, nil))
	assert.Equal(t, response.CodePermissionDenied, resp.Code)

	resp = parseResponse(t, performRequest(router, "POST", path, nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, model.TaskStatusCompleted, dataMap(t, resp)["status"])

	resp = parseResponse(t, performRequest(router, "POST", path, nil))
	assert.Equal(t, response.CodeDuplicateAction, resp.Code)

	resp = parseResponse(t, performRequest(router, "POST", "/tasks/99999/complete", nil))
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)

	resp = parseResponse(t, performRequest(router, "GET", "/tasks?status=completed", nil))
	data := dataMap(t, resp)
	assert.Equal(t, float64(1), data["total"])

	resp = parseResponse(t, performRequest(router, "GET", "/tasks?status=someday", nil))
	assert.Equal(t, response.CodeParamError, resp.Code)
}
