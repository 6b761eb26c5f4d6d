package filter

import (
	"strings"

	"github.com/amishk599/jobalert/internal/model"
)

// TitleFilter keeps postings whose title contains any include keyword and
// none of the exclude keywords. Matching is case-insensitive substring.
// An empty include list matches every title.
type TitleFilter struct {
	include []string
	exclude []string
}

// NewTitleFilter returns a filter over lowercased keyword lists.
func NewTitleFilter(include, exclude []string) *TitleFilter {
	return &TitleFilter{
		include: lowerAll(include),
		exclude: lowerAll(exclude),
	}
}

// Match reports whether the posting survives the filter.
func (f *TitleFilter) Match(p model.Posting) bool {
	title := strings.ToLower(p.Title)

	if len(f.include) > 0 && !containsAny(title, f.include) {
		return false
	}
	return !containsAny(title, f.exclude)
}

// Apply returns the postings that match f, preserving order.
func Apply(f model.PostingFilter, postings []model.Posting) []model.Posting {
	if f == nil {
		return postings
	}
	var kept []model.Posting
	for _, p := range postings {
		if f.Match(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
