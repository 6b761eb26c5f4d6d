package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobalert/internal/scheduler"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run on the configured schedule",
	Long:  "Runs one pass immediately, then one per tick of the configured cron schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"terms", len(cfg.Terms),
		"source", cfg.Source.Type,
		"store", cfg.Store.Type,
		"notification", cfg.Notification.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return &exitError{code: 1, err: err}
	}
	defer a.closer.Close()

	sched := scheduler.NewScheduler(a.runner, cfg.Schedule, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return &exitError{code: 1, err: err}
	}

	logger.Info("goodbye")
	return nil
}
