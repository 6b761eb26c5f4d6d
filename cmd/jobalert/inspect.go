package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobalert/internal/config"
	"github.com/amishk599/jobalert/internal/inspect"
	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/poller"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Preview a term's next alert interactively (TUI)",
	Long:  "Shows the term picker, scrapes the chosen term and shows which postings are new. Nothing is written or sent.",
	RunE:  runInspectCmd,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	ctx := context.Background()
	st, closer, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return &exitError{code: 1, err: err}
	}
	defer closer.Close()

	// Any log output while the TUI owns the terminal corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src, err := buildSource(cfg, silentLogger)
	if err != nil {
		logger.Error("failed to set up source", "error", err)
		return &exitError{code: 1, err: err}
	}

	terms, err := poller.NewRunner(st, cfg.TermNames(), nil, 1, logger).Terms(ctx)
	if err != nil {
		logger.Error("failed to list terms", "error", err)
		return &exitError{code: 1, err: err}
	}

	return runInspect(cfg, terms, src, st)
}

func runInspect(cfg *config.Config, terms []model.SearchTerm, src model.ListingSource, st model.StateStore) error {
	items := make([]inspect.TermItem, len(terms))
	for i, t := range terms {
		items[i] = inspect.TermItem{Term: t, Devices: cfg.DevicesFor(t)}
	}

	for {
		choice, err := inspect.RunTermPicker(items)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		term := terms[choice]

		timeout := cfg.Source.Timeout * 10
		pv, err := inspect.RunLoader(term.DisplayName(), timeout, func(ctx context.Context) (inspect.Preview, error) {
			return inspect.BuildPreview(ctx, term, cfg.Query(), src, termFilter(cfg, term), st)
		})
		if err != nil {
			fmt.Printf("Error previewing %s: %v\n", term, err)
			continue
		}

		wantQuit, err := inspect.RunInspectTUI(pv)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}
