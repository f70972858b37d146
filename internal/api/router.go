package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/api/handler"
	"github.com/123sania456789/MindTrackAI/internal/api/middleware"
)

type Router struct {
	journalHandler   *handler.JournalHandler
	jobHandler       *handler.JobHandler
	moodHandler      *handler.MoodHandler
	taskHandler      *handler.TaskHandler
	goalHandler      *handler.GoalHandler
	insightHandler   *handler.InsightHandler
	textHandler      *handler.TextHandler
	websocketHandler *handler.WebSocketHandler
	limiter          *middleware.RateLimiter
	registry         *prometheus.Registry
	logger           *zap.Logger
	cfg              *config.Config
}

func NewRouter(
	journalHandler *handler.JournalHandler,
	jobHandler *handler.JobHandler,
	moodHandler *handler.MoodHandler,
	taskHandler *handler.TaskHandler,
	goalHandler *handler.GoalHandler,
	insightHandler *handler.InsightHandler,
	textHandler *handler.TextHandler,
	websocketHandler *handler.WebSocketHandler,
	registry *prometheus.Registry,
	logger *zap.Logger,
	cfg *config.Config,
) *Router {
	return &Router{
		journalHandler:   journalHandler,
		jobHandler:       jobHandler,
		moodHandler:      moodHandler,
		taskHandler:      taskHandler,
		goalHandler:      goalHandler,
		insightHandler:   insightHandler,
		textHandler:      textHandler,
		websocketHandler: websocketHandler,
		limiter:          middleware.NewRateLimiter(cfg.RateLimit),
		registry:         registry,
		logger:           logger,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if r.cfg.Metrics.Enabled && r.registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	{
		// websocket authenticates with ?token= since browsers cannot set headers
		api.GET("/ws", r.websocketHandler.Handle)

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			entries := authenticated.Group("/entries")
			{
				entries.POST("", r.journalHandler.Create)
				entries.GET("", r.journalHandler.List)
				entries.GET("/:id", r.journalHandler.Get)
				entries.PUT("/:id", r.journalHandler.Update)
				entries.DELETE("/:id", r.journalHandler.Delete)
				entries.GET("/:id/versions", r.journalHandler.Versions)
				entries.POST("/:id/analyze", r.limiter.Middleware(), r.jobHandler.Analyze)
			}

			jobs := authenticated.Group("/jobs")
			{
				jobs.GET("/:id", r.jobHandler.Status)
				jobs.POST("/:id/cancel", r.jobHandler.Cancel)
			}

			moods := authenticated.Group("/moods")
			{
				moods.POST("", r.moodHandler.Create)
				moods.GET("", r.moodHandler.List)
			}

			tasks := authenticated.Group("/tasks")
			{
				tasks.POST("", r.taskHandler.Create)
				tasks.GET("", r.taskHandler.List)
				tasks.POST("/:id/complete", r.taskHandler.Complete)
			}

			goals := authenticated.Group("/goals")
			{
				goals.POST("", r.goalHandler.Create)
				goals.GET("", r.goalHandler.List)
				goals.POST("/:id/progress", r.goalHandler.UpdateProgress)
			}

			authenticated.GET("/insights", r.insightHandler.Summary)
			// inline analysis shares the per-user analysis budget
			authenticated.POST("/analyze", r.limiter.Middleware(), r.textHandler.Analyze)
		}
	}

	return engine
}
