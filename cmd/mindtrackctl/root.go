package main

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/database"
	"github.com/123sania456789/MindTrackAI/internal/pkg/logger"
)

// app holds what the subcommands share. Connections are opened on first
// use so that commands like token work without a database.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
	db         *gorm.DB
	rdb        *redis.Client
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "mindtrackctl",
		Short:        "Maintenance commands for the MindTrackAI analysis pipeline",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.log = logger.Must(cfg.Log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "path to the config file")

	rootCmd.AddCommand(
		recoverCommand(a),
		purgeCommand(a),
		statusCommand(a),
		tokenCommand(a),
	)
	return rootCmd
}

func (a *app) database() (*gorm.DB, error) {
	if a.db == nil {
		db, err := database.Open(&a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
	}
	return a.db, nil
}

func (a *app) redis() (*redis.Client, error) {
	if a.rdb == nil {
		rdb, err := database.NewRedis(&a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.rdb = rdb
	}
	return a.rdb, nil
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
