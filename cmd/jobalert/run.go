package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dryRun bool
	strict bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll every search term once, then exit",
	Long: `Polls every search term once: scrape, diff against the seen set, persist, notify.
Exits 1 if search terms cannot be enumerated. Failed terms are logged and, unless --strict is set, do not change the exit code.`,
	RunE: runOnce,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().BoolVar(&dryRun, "dry-run", false, "read state but do not write it; log alerts instead of sending them")
		cmd.Flags().BoolVar(&strict, "strict", false, "exit 1 if any search term failed")
	}
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dryRun {
		logger.Info("dry-run mode enabled, seen sets will not be updated")
	}

	a, err := newApp(ctx, cfg, dryRun, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return &exitError{code: 1, err: err}
	}
	defer a.closer.Close()

	summary, err := a.runner.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return &exitError{code: 1, err: err}
	}

	if strict && len(summary.Failed) > 0 {
		errs := make([]error, 0, len(summary.Failed))
		for _, e := range summary.Failed {
			errs = append(errs, e)
		}
		return &exitError{code: 1, err: errors.Join(errs...)}
	}
	return nil
}
