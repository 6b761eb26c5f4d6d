package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/poller"
	"github.com/amishk599/jobalert/internal/store"
)

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Search term subcommands",
}

var termsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every search term that will be polled",
	Long:  "Prints the union of the terms registered in the store and the terms in the config.",
	RunE:  runTermsList,
}

var termsAddCmd = &cobra.Command{
	Use:   "add <term>...",
	Short: "Register search terms in the store",
	Long:  "Registers each term with an empty seen set. Terms already registered are left untouched.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTermsAdd,
}

func init() {
	rootCmd.AddCommand(termsCmd)
	termsCmd.AddCommand(termsListCmd, termsAddCmd)
}

func runTermsList(cmd *cobra.Command, args []string) error {
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

	terms, err := poller.NewRunner(st, cfg.TermNames(), nil, 1, logger).Terms(ctx)
	if err != nil {
		logger.Error("failed to list terms", "error", err)
		return &exitError{code: 1, err: err}
	}

	fmt.Printf("%-30s %-30s %s\n", "Term", "Name", "Devices")
	fmt.Println(strings.Repeat("─", 75))
	for _, t := range terms {
		devices := strings.Join(cfg.DevicesFor(t), ", ")
		if devices == "" {
			devices = "(default)"
		}
		fmt.Printf("%-30s %-30s %s\n", t, t.DisplayName(), devices)
	}
	fmt.Printf("\nTotal: %d terms\n", len(terms))
	return nil
}

func runTermsAdd(cmd *cobra.Command, args []string) error {
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

	for _, raw := range args {
		term := model.NormalizeTerm(raw)
		if term == "" {
			fmt.Fprintf(os.Stderr, "skipping empty term %q\n", raw)
			continue
		}
		added, err := registerTerm(ctx, st, term)
		if err != nil {
			logger.Error("failed to add term", "term", term, "error", err)
			return &exitError{code: 1, err: err}
		}
		if added {
			fmt.Printf("added %s\n", term)
		} else {
			fmt.Printf("%s already registered\n", term)
		}
	}
	return nil
}

// registerTerm writes an empty seen set for term unless one exists.
func registerTerm(ctx context.Context, st model.StateStore, term model.SearchTerm) (bool, error) {
	key := store.SeenKey(term)
	_, found, err := st.Read(ctx, key)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}
	if err := st.Write(ctx, key, []string{}); err != nil {
		return false, err
	}
	return true, nil
}
