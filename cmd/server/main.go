package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/api"
	"github.com/123sania456789/MindTrackAI/internal/api/handler"
	"github.com/123sania456789/MindTrackAI/internal/database"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/logger"
	"github.com/123sania456789/MindTrackAI/internal/pkg/metrics"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/pkg/ws"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Log)
	defer log.Sync()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.Database.Driver))

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
	publisher := pubsub.NewPublisher(rdb)

	hub := ws.NewHub(log.Named("ws"))
	go func() {
		if err := hub.Relay(ctx, pubsub.NewSubscriber(rdb)); err != nil && ctx.Err() == nil {
			log.Error("progress relay stopped", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	// the server analyzes inline requests and validates entry text with the
	// same pipeline the workers run
	handle := nlp.NewModelHandle()
	if err := handle.Load(); err != nil {
		log.Fatal("failed to load model data", zap.Error(err))
	}
	defer handle.Close()
	analyzer, err := nlp.NewAnalyzerFromConfig(cfg, handle, log.Named("runner"), nlp.WithRecorder(m))
	if err != nil {
		log.Fatal("failed to build analyzer", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	jobRepo := repository.NewJobRepository(db)
	annotationRepo := repository.NewAnnotationRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	goalRepo := repository.NewGoalRepository(db)

	analysisService := service.NewAnalysisService(jobRepo, entryRepo, annotationRepo, jobQueue, publisher,
		log.Named("analysis"), service.WithTextValidator(analyzer))
	journalService := service.NewJournalService(entryRepo, userRepo, analysisService, log.Named("journal"))
	moodService := service.NewMoodService(moodRepo, userRepo)
	taskService := service.NewTaskService(taskRepo, userRepo)
	goalService := service.NewGoalService(goalRepo, userRepo)
	insightService := service.NewInsightService(entryRepo, annotationRepo, moodRepo)
	textService := service.NewTextAnalysisService(analyzer, log.Named("text"))

	router := api.NewRouter(
		handler.NewJournalHandler(journalService),
		handler.NewJobHandler(analysisService),
		handler.NewMoodHandler(moodService),
		handler.NewTaskHandler(taskService),
		handler.NewGoalHandler(goalService),
		handler.NewInsightHandler(insightService),
		handler.NewTextHandler(textService),
		handler.NewWebSocketHandler(hub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, log.Named("ws")),
		registry,
		log.Named("http"),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
