// Package inspect is an interactive terminal browser that shows what the next
// run would notify for a search term, without writing state or sending alerts.
package inspect

import (
	"context"
	"fmt"

	"github.com/amishk599/jobalert/internal/dedup"
	"github.com/amishk599/jobalert/internal/filter"
	"github.com/amishk599/jobalert/internal/message"
	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/store"
)

// Preview is the dry outcome of polling one term.
type Preview struct {
	Term     model.SearchTerm
	Fetched  int
	Matched  []model.Posting // postings that passed the filter, in arrival order
	New      []model.Posting
	Seen     int  // identities already stored for the term
	FirstRun bool // no seen set stored yet
	Title    string
	Body     string
}

// IsNew reports whether p is among the postings that would be notified.
func (pv Preview) IsNew(p model.Posting) bool {
	id := dedup.Identity(p)
	for _, n := range pv.New {
		if dedup.Identity(n) == id {
			return true
		}
	}
	return false
}

// BuildPreview scrapes term and diffs the result against the stored seen set.
// Nothing is written and nothing is sent.
func BuildPreview(ctx context.Context, term model.SearchTerm, q model.Query, source model.ListingSource, f model.PostingFilter, st model.StateStore) (Preview, error) {
	q.Term = term
	postings, err := source.Scrape(ctx, q)
	if err != nil {
		return Preview{}, fmt.Errorf("previewing %s: %w: %w", term, model.ErrSourceUnavailable, err)
	}

	ids, found, err := st.Read(ctx, store.SeenKey(term))
	if err != nil {
		return Preview{}, fmt.Errorf("previewing %s: reading seen set: %w", term, err)
	}

	matched := filter.Apply(f, postings)
	result := dedup.Diff(matched, dedup.NewSeenSet(ids...))

	return Preview{
		Term:     term,
		Fetched:  len(postings),
		Matched:  matched,
		New:      result.New,
		Seen:     len(ids),
		FirstRun: !found,
		Title:    message.Title(term),
		Body:     message.Format(result.New),
	}, nil
}
