package poller

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/store"
)

// Poller runs one poll cycle for one term.
type Poller interface {
	Poll(ctx context.Context) (Outcome, error)
}

// PollerFactory builds the poller for a term.
type PollerFactory func(term model.SearchTerm) Poller

// Summary aggregates a run over every term.
type Summary struct {
	RunID       string
	Terms       []model.SearchTerm
	Succeeded   []model.SearchTerm
	Failed      map[model.SearchTerm]error
	New         int
	Delivered   int // targets that received an alert
	Undelivered int // targets that exhausted their retries
	Duration    time.Duration
}

// Runner polls every known search term once.
type Runner struct {
	store       model.StateStore
	configured  []model.SearchTerm
	newPoller   PollerFactory
	concurrency int
	logger      *slog.Logger
}

// NewRunner returns a runner over the terms registered in st plus the
// configured ones. concurrency below 1 is treated as 1.
func NewRunner(st model.StateStore, configured []model.SearchTerm, newPoller PollerFactory, concurrency int, logger *slog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		store:       st,
		configured:  configured,
		newPoller:   newPoller,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Terms returns the sorted union of stored and configured terms.
func (r *Runner) Terms(ctx context.Context) ([]model.SearchTerm, error) {
	names, err := r.store.List(ctx, store.TermsPath)
	if err != nil {
		return nil, fmt.Errorf("listing search terms: %w", err)
	}

	terms := slices.Clone(r.configured)
	for _, name := range names {
		terms = append(terms, model.SearchTerm(name))
	}
	slices.Sort(terms)
	return slices.Compact(terms), nil
}

// Run polls every term. A failing term is logged and recorded in the summary
// without affecting the others; only failing to enumerate terms is an error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{
		RunID:  uuid.NewString(),
		Failed: make(map[model.SearchTerm]error),
	}
	logger := r.logger.With("run_id", summary.RunID)

	terms, err := r.Terms(ctx)
	if err != nil {
		return summary, err
	}
	summary.Terms = terms
	logger.Info("run started", "terms", len(terms), "concurrency", r.concurrency)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, term := range terms {
		g.Go(func() error {
			logger.Info("processing search term", "term", term)
			out, err := r.newPoller(term).Poll(ctx)

			mu.Lock()
			defer mu.Unlock()
			summary.New += out.New
			summary.Delivered += len(out.Report.Delivered)
			summary.Undelivered += len(out.Report.Failed)
			if err != nil {
				logger.Error("term failed", "term", term, "error", err)
				summary.Failed[term] = err
				return nil
			}
			summary.Succeeded = append(summary.Succeeded, term)
			return nil
		})
	}
	g.Wait()

	slices.Sort(summary.Succeeded)
	summary.Duration = time.Since(start)
	logger.Info("run complete",
		"terms", len(summary.Terms),
		"succeeded", len(summary.Succeeded),
		"failed", slices.Sorted(maps.Keys(summary.Failed)),
		"new", summary.New,
		"delivered", summary.Delivered,
		"undelivered", summary.Undelivered,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}
