package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/service"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testContext struct {
	DB    *gorm.DB
	Queue *memQueue
}

type memQueue struct {
	mu   sync.Mutex
	msgs []queue.JobMessage
}

func (q *memQueue) Push(_ context.Context, msg *queue.JobMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, *msg)
	return nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

type nopPublisher struct{}

func (nopPublisher) PublishProgress(context.Context, *pubsub.ProgressMessage) error { return nil }

type services struct {
	analysis *service.AnalysisService
	journal  *service.JournalService
	mood     *service.MoodService
	task     *service.TaskService
	goal     *service.GoalService
	insight  *service.InsightService
	text     *service.TextAnalysisService
}

func setupServices(t *testing.T) (*services, *testContext) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	jobRepo := repository.NewJobRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	annotationRepo := repository.NewAnnotationRepository(db)
	userRepo := repository.NewUserRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	logger := zaptest.NewLogger(t)

	handle := nlp.NewModelHandle()
	require.NoError(t, handle.Load())
	t.Cleanup(func() { _ = handle.Close() })
	analyzer, err := nlp.NewAnalyzerFromConfig(&config.Config{Models: config.DefaultModels()}, handle, logger)
	require.NoError(t, err)

	q := &memQueue{}
	analysis := service.NewAnalysisService(jobRepo, entryRepo, annotationRepo, q, nopPublisher{}, logger,
		service.WithTextValidator(analyzer))
	return &services{
		analysis: analysis,
		journal:  service.NewJournalService(entryRepo, userRepo, analysis, logger),
		mood:     service.NewMoodService(moodRepo, userRepo),
		task:     service.NewTaskService(repository.NewTaskRepository(db), userRepo),
		goal:     service.NewGoalService(repository.NewGoalRepository(db), userRepo),
		insight:  service.NewInsightService(entryRepo, annotationRepo, moodRepo),
		text:     service.NewTextAnalysisService(analyzer, logger),
	}, &testContext{DB: db, Queue: q}
}

func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap returns resp.Data as a JSON object.
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}
