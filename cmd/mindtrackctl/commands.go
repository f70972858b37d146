package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/pkg/cron"
	"github.com/123sania456789/MindTrackAI/internal/pkg/jwt"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/worker"
)

func recoverCommand(a *app) *cobra.Command {
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Requeue running jobs whose worker stopped reporting",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			rdb, err := a.redis()
			if err != nil {
				return err
			}
			if staleAfter <= 0 {
				staleAfter = a.cfg.Pipeline.StaleAfter
			}

			q := queue.NewQueue(rdb, a.cfg.Queue.AnalysisQueue)
			recoverer := worker.NewRecoverer(repository.NewJobRepository(db), q, staleAfter, nil, a.log)
			n, err := cron.NewService(recoverer, nil, 0, 0, a.log).RunRecoveryNow(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d stale job(s)\n", n)
			return err
		},
	}
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "age of a running job's claim before it is requeued (default from config)")
	return cmd
}

func purgeCommand(a *app) *cobra.Command {
	var retainDays int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete finished jobs older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			if retainDays <= 0 {
				retainDays = a.cfg.Pipeline.RetainDays
			}

			svc := cron.NewService(nil, repository.NewJobRepository(db), 0, retainDays, a.log)
			n, err := svc.RunPurgeNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d job(s) older than %d day(s)\n", n, retainDays)
			return nil
		},
	}
	cmd.Flags().IntVar(&retainDays, "retain-days", 0, "days to keep finished jobs (default from config)")
	return cmd
}

func statusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts by status and queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			rdb, err := a.redis()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			counts, err := repository.NewJobRepository(db).CountByStatus(ctx)
			if err != nil {
				return err
			}
			q := queue.NewQueue(rdb, a.cfg.Queue.AnalysisQueue)
			waiting, err := q.Length(ctx)
			if err != nil {
				return err
			}
			pending, err := q.Pending(ctx)
			if err != nil {
				return err
			}
			delayed, err := q.Delayed(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, status := range statusOrder(counts) {
				fmt.Fprintf(out, "%-10s %d\n", status, counts[status])
			}
			fmt.Fprintf(out, "queue %q: %d waiting, %d in flight, %d delayed\n",
				a.cfg.Queue.AnalysisQueue, waiting, pending, delayed)
			return nil
		},
	}
}

// statusOrder lists the lifecycle statuses first, then anything unexpected.
func statusOrder(counts map[string]int64) []string {
	order := []string{
		model.JobStatusQueued,
		model.JobStatusRunning,
		model.JobStatusSucceeded,
		model.JobStatusFailed,
		model.JobStatusCancelled,
	}
	known := make(map[string]bool, len(order))
	for _, s := range order {
		known[s] = true
	}
	var extra []string
	for s := range counts {
		if !known[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func tokenCommand(a *app) *cobra.Command {
	var (
		userID int64
		hours  int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user-id is required")
			}
			if hours <= 0 {
				hours = a.cfg.JWT.ExpireHours
			}
			token, err := jwt.GenerateToken(userID, a.cfg.JWT.Secret, hours)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user the token is issued for")
	cmd.Flags().IntVar(&hours, "hours", 0, "token lifetime in hours (default from config)")
	return cmd
}
