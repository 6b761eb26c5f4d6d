package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobalert/internal/dedup"
	"github.com/amishk599/jobalert/internal/filter"
	"github.com/amishk599/jobalert/internal/message"
	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/notifier"
	"github.com/amishk599/jobalert/internal/store"
)

// Dispatcher delivers a formatted alert for a term to its devices.
type Dispatcher interface {
	Dispatch(ctx context.Context, term model.SearchTerm, devices []string, body string) notifier.Report
}

// Outcome describes one poll of one term.
type Outcome struct {
	Term    model.SearchTerm
	Fetched int
	Matched int
	New     int
	Seeded  bool // first run stored without notifying
	Report  notifier.Report
}

// TermPoller owns the full poll pipeline for a single search term:
// scrape → filter → diff → persist → notify.
type TermPoller struct {
	Term          model.SearchTerm
	devices       []string
	query         model.Query
	source        model.ListingSource
	filter        model.PostingFilter
	store         model.StateStore
	dispatcher    Dispatcher
	quietFirstRun bool
	logger        *slog.Logger
}

// NewTermPoller creates a poller wired with all its dependencies. query.Term
// is set to term. A nil filter keeps every posting.
func NewTermPoller(
	term model.SearchTerm,
	devices []string,
	query model.Query,
	source model.ListingSource,
	filter model.PostingFilter,
	store model.StateStore,
	dispatcher Dispatcher,
	logger *slog.Logger,
) *TermPoller {
	query.Term = term
	return &TermPoller{
		Term:       term,
		devices:    devices,
		query:      query,
		source:     source,
		filter:     filter,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetQuietFirstRun makes a term with no stored seen set record its current
// postings without notifying.
func (p *TermPoller) SetQuietFirstRun(enabled bool) {
	p.quietFirstRun = enabled
}

// Poll runs one poll cycle. The updated seen set is written before any
// notification is attempted, and is written even when nothing is new. A
// failed write is logged and returned after notifying.
func (p *TermPoller) Poll(ctx context.Context) (Outcome, error) {
	out := Outcome{Term: p.Term}

	postings, err := p.source.Scrape(ctx, p.query)
	if err != nil {
		return out, fmt.Errorf("polling %s: %w: %w", p.Term, model.ErrSourceUnavailable, err)
	}
	out.Fetched = len(postings)

	matched := filter.Apply(p.filter, postings)
	out.Matched = len(matched)

	key := store.SeenKey(p.Term)
	ids, found, err := p.store.Read(ctx, key)
	if err != nil {
		return out, fmt.Errorf("polling %s: reading seen set: %w", p.Term, err)
	}

	result := dedup.Diff(matched, dedup.NewSeenSet(ids...))
	out.New = len(result.New)

	var writeErr error
	if err := p.store.Write(ctx, key, result.Updated.Slice()); err != nil {
		writeErr = fmt.Errorf("polling %s: %w: %w", p.Term, model.ErrStoreWrite, err)
		p.logger.Error("persisting seen set failed", "term", p.Term, "error", err)
	}

	switch {
	case !found && p.quietFirstRun:
		out.Seeded = true
		p.logger.Info("first run, seeded seen set without notifying",
			"term", p.Term,
			"seeded", result.Updated.Len(),
		)
	case len(result.New) > 0:
		out.Report = p.dispatcher.Dispatch(ctx, p.Term, p.devices, message.Format(result.New))
	}

	p.logger.Info("polled term",
		"term", p.Term,
		"fetched", out.Fetched,
		"matched", out.Matched,
		"new", out.New,
		"seen", result.Updated.Len(),
	)

	return out, writeErr
}
