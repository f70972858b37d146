package cron

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper requeues jobs whose worker disappeared.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// JobPurger deletes finished jobs older than cutoff.
type JobPurger interface {
	PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service runs the periodic recovery sweep and the daily purge of old
// terminal jobs.
type Service struct {
	sweeper  Sweeper
	purger   JobPurger
	interval time.Duration
	retain   time.Duration
	logger   *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewService(sweeper Sweeper, purger JobPurger, interval time.Duration, retainDays int, logger *zap.Logger) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	if retainDays <= 0 {
		retainDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sweeper:  sweeper,
		purger:   purger,
		interval: interval,
		retain:   time.Duration(retainDays) * 24 * time.Hour,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (s *Service) Start() {
	if s.sweeper != nil {
		s.wg.Add(1)
		go s.runRecovery()
	}
	if s.purger != nil {
		s.wg.Add(1)
		go s.runDailyPurge()
	}
	s.logger.Info("cron service started",
		zap.Duration("recovery_interval", s.interval),
		zap.Duration("retain", s.retain))
}

// Stop is safe to call more than once and waits for running tasks.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Info("cron service stopped")
}

func (s *Service) runRecovery() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := s.stopContext()
			if _, err := s.RunRecoveryNow(ctx); err != nil {
				s.logger.Error("recovery sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func (s *Service) runDailyPurge() {
	defer s.wg.Done()

	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timer := time.NewTimer(nextMidnight.Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-timer.C:
			ctx, cancel := s.stopContext()
			if _, err := s.RunPurgeNow(ctx); err != nil {
				s.logger.Error("job purge failed", zap.Error(err))
			}
			cancel()
			timer.Reset(24 * time.Hour)
		}
	}
}

// stopContext returns a context that is also cancelled by Stop.
func (s *Service) stopContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// RunRecoveryNow performs one sweep, for the CLI and tests.
func (s *Service) RunRecoveryNow(ctx context.Context) (int, error) {
	n, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("requeued stale jobs", zap.Int("count", n))
	}
	return n, nil
}

// RunPurgeNow deletes terminal jobs older than the retention window.
func (s *Service) RunPurgeNow(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retain)
	n, err := s.purger.PurgeTerminal(ctx, cutoff)
	if err != nil {
		return n, err
	}
	s.logger.Info("purged terminal jobs", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	return n, nil
}
