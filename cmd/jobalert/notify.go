package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/notifier"
)

var notifyTerm string

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test notification through the configured gateway, to the devices of --term when given.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyTerm, "term", "", "send to the devices configured for this search term")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	gw, err := buildGateway(cfg, &http.Client{Timeout: cfg.Source.Timeout}, logger)
	if err != nil {
		logger.Error("failed to set up gateway", "error", err)
		return &exitError{code: 1, err: err}
	}

	var devices []string
	if notifyTerm != "" {
		devices = cfg.DevicesFor(model.NormalizeTerm(notifyTerm))
	}

	report := notifier.SendTestMessage(context.Background(), buildDispatcher(cfg, gw, logger), devices)
	if !report.OK() {
		logger.Error("test notification failed", "failed", report.Failed)
		return &exitError{code: 1, err: errors.New("test notification failed")}
	}
	logger.Info("test notification sent successfully", "delivered", report.Delivered)
	return nil
}
