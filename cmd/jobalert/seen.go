package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/store"
)

var seenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Inspect or reset a term's seen set",
}

var seenShowCmd = &cobra.Command{
	Use:   "show <term>",
	Short: "Print the posting identities already alerted for a term",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeenShow,
}

var seenClearCmd = &cobra.Command{
	Use:   "clear <term>",
	Short: "Empty a term's seen set so every current posting alerts again",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeenClear,
}

func init() {
	rootCmd.AddCommand(seenCmd)
	seenCmd.AddCommand(seenShowCmd, seenClearCmd)
}

func runSeenShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st model.StateStore) error {
		term := model.NormalizeTerm(args[0])
		ids, found, err := st.Read(ctx, store.SeenKey(term))
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("%s has no seen set\n", term)
			return nil
		}
		slices.Sort(ids)
		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Printf("\nTotal: %d seen postings for %s\n", len(ids), term)
		return nil
	})
}

func runSeenClear(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st model.StateStore) error {
		term := model.NormalizeTerm(args[0])
		if err := st.Write(ctx, store.SeenKey(term), []string{}); err != nil {
			return err
		}
		fmt.Printf("cleared seen set for %s\n", term)
		return nil
	})
}

// withStore loads the config, opens the store and runs fn against it.
func withStore(fn func(ctx context.Context, st model.StateStore) error) error {
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

	if err := fn(ctx, st); err != nil {
		logger.Error("store operation failed", "error", err)
		return &exitError{code: 1, err: err}
	}
	return nil
}
