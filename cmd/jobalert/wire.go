package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/amishk599/jobalert/internal/adapter"
	"github.com/amishk599/jobalert/internal/config"
	"github.com/amishk599/jobalert/internal/filter"
	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/notifier"
	"github.com/amishk599/jobalert/internal/poller"
	"github.com/amishk599/jobalert/internal/ratelimit"
	"github.com/amishk599/jobalert/internal/retry"
	"github.com/amishk599/jobalert/internal/store"
)

// openStore connects the configured state store. The returned closer is
// never nil.
func openStore(ctx context.Context, cfg *config.Config) (model.StateStore, io.Closer, error) {
	switch cfg.Store.Type {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.Store.URL)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "redis":
		s, err := store.NewRedisStore(ctx, cfg.Store.URL, cfg.Store.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "memory":
		return store.NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type %q", cfg.Store.Type)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildSource creates the configured listing source. Each attempt waits on
// the site rate limiter; transient failures are retried with backoff.
func buildSource(cfg *config.Config, logger *slog.Logger) (model.ListingSource, error) {
	httpClient := &http.Client{Timeout: cfg.Source.Timeout}

	var src model.ListingSource
	switch cfg.Source.Type {
	case "linkedin":
		src = adapter.NewLinkedInSource(httpClient, logger)
	case "adzuna":
		a := cfg.Source.Adzuna
		src = adapter.NewAdzunaSource(a.AppID, a.AppKey, a.Country, httpClient)
	case "greenhouse":
		boards := make([]adapter.GreenhouseBoard, 0, len(cfg.Source.Greenhouse))
		for _, b := range cfg.Source.Greenhouse {
			boards = append(boards, adapter.GreenhouseBoard{Token: b.Token, Company: b.Company})
		}
		src = adapter.NewGreenhouseSource(boards, httpClient, logger)
	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Source.Type)
	}

	limiter := ratelimit.NewSiteRateLimiter(cfg.Source.MinDelay)
	src = ratelimit.NewRateLimitedSource(src, limiter, cfg.Source.Type)
	return retry.NewRetrySource(src, cfg.Source.Retries, cfg.Source.RetryDelay, logger), nil
}

func buildGateway(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Gateway, error) {
	n := cfg.Notification
	switch n.Type {
	case "pushover":
		return notifier.NewPushoverGateway(n.Pushover.APIToken, n.Pushover.UserKey, httpClient, logger), nil
	case "slack":
		logger.Info("using slack gateway")
		return notifier.NewSlackGateway(n.Slack.WebhookURL, httpClient, logger), nil
	case "telegram":
		logger.Info("using telegram gateway", "chat_id", n.Telegram.ChatID)
		return notifier.NewTelegramGateway(n.Telegram.BotToken, n.Telegram.ChatID, "", httpClient, logger), nil
	case "log":
		return notifier.NewLogGateway(logger), nil
	default:
		return nil, fmt.Errorf("unsupported notification type %q", n.Type)
	}
}

func buildDispatcher(cfg *config.Config, gw model.Gateway, logger *slog.Logger) *notifier.Dispatcher {
	policy := retry.Fixed(cfg.Notification.Retries, cfg.Notification.RetryDelay)
	return notifier.NewDispatcher(gw, policy, cfg.Notification.Priority, logger)
}

// termFilter returns the merged title filter for term, or nil when no
// keywords apply.
func termFilter(cfg *config.Config, term model.SearchTerm) model.PostingFilter {
	fc := cfg.FiltersFor(term)
	if len(fc.TitleKeywords) == 0 && len(fc.TitleExcludeKeywords) == 0 {
		return nil
	}
	return filter.NewTitleFilter(fc.TitleKeywords, fc.TitleExcludeKeywords)
}

func pollerFactory(cfg *config.Config, src model.ListingSource, st model.StateStore, d poller.Dispatcher, logger *slog.Logger) poller.PollerFactory {
	return func(term model.SearchTerm) poller.Poller {
		p := poller.NewTermPoller(term, cfg.DevicesFor(term), cfg.Query(), src, termFilter(cfg, term), st, d, logger)
		p.SetQuietFirstRun(cfg.QuietFirstRun)
		return p
	}
}

// app bundles everything a run needs.
type app struct {
	runner *poller.Runner
	closer io.Closer
}

// newApp wires store, source, gateway and runner. With dryRun the store
// is read-only and alerts go to the log gateway.
func newApp(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (*app, error) {
	st, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	src, err := buildSource(cfg, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	var gw model.Gateway
	if dryRun {
		st = store.NewReadOnlyStore(st)
		gw = notifier.NewLogGateway(logger)
	} else {
		gw, err = buildGateway(cfg, &http.Client{Timeout: cfg.Source.Timeout}, logger)
		if err != nil {
			closer.Close()
			return nil, err
		}
	}

	d := buildDispatcher(cfg, gw, logger)
	runner := poller.NewRunner(st, cfg.TermNames(), pollerFactory(cfg, src, st, d, logger), cfg.Concurrency, logger)
	return &app{runner: runner, closer: closer}, nil
}
