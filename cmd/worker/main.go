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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/database"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/cron"
	"github.com/123sania456789/MindTrackAI/internal/pkg/logger"
	"github.com/123sania456789/MindTrackAI/internal/pkg/metrics"
	"github.com/123sania456789/MindTrackAI/internal/pkg/oss"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/worker"
)

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

	if err := run(cfg, log); err != nil {
		log.Fatal("worker failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	// the lexicon is loaded once and shared by every adapter
	handle := nlp.NewModelHandle()
	if err := handle.Load(); err != nil {
		return fmt.Errorf("load model data: %w", err)
	}
	defer handle.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return err
	}

	analyzer, err := nlp.NewAnalyzerFromConfig(cfg, handle, log.Named("runner"), nlp.WithRecorder(m))
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}

	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
	jobRepo := repository.NewJobRepository(db)

	opts := []worker.ProcessorOption{worker.WithMetrics(m)}
	if cfg.OSS.Enabled() {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Warn("annotation archiving disabled", zap.Error(err))
		} else {
			opts = append(opts, worker.WithArchiver(ossClient))
			log.Info("annotation archiving enabled", zap.String("bucket", cfg.OSS.BucketName))
		}
	}

	processor := worker.NewProcessor(jobRepo, jobQueue, analyzer, pubsub.NewPublisher(rdb), log.Named("processor"), opts...)
	pool := worker.NewPool(jobQueue, processor, cfg.Queue.MaxWorkers, cfg.Queue.PopTimeout, m, log.Named("pool"))
	recoverer := worker.NewRecoverer(jobRepo, jobQueue, cfg.Pipeline.StaleAfter, m, log.Named("recovery"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// jobs orphaned by a previous crash are picked up before new work
	if n, err := recoverer.Sweep(ctx); err != nil {
		log.Warn("startup recovery sweep incomplete", zap.Int("requeued", n), zap.Error(err))
	}

	scheduler := cron.NewService(recoverer, jobRepo, cfg.Pipeline.RecoveryInterval, cfg.Pipeline.RetainDays, log.Named("cron"))
	scheduler.Start()
	defer scheduler.Stop()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled && cfg.Metrics.WorkerAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.Metrics.WorkerAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	log.Info("worker started",
		zap.Int("workers", cfg.Queue.MaxWorkers),
		zap.String("queue", cfg.Queue.AnalysisQueue))

	// Run returns once every in-flight job has finished
	pool.Run(ctx)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Info("worker shutdown complete")
	return nil
}
