// Package dedup decides which scraped postings are new relative to the
// identities already seen for a search term.
package dedup

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/amishk599/jobalert/internal/model"
)

const identitySep = "--"

var componentEscaper = strings.NewReplacer(`\`, `\\`, "-", `\-`)

// Identity returns the deduplication key for p: lowercased company and title
// joined by a double hyphen. The URL is deliberately not part of it. Hyphens
// and backslashes inside each component are escaped so the separator can only
// appear once.
func Identity(p model.Posting) string {
	return escape(p.Company) + identitySep + escape(p.Title)
}

func escape(s string) string {
	return componentEscaper.Replace(strings.ToLower(s))
}

// SeenSet is the set of identities observed for one search term.
// The zero value is an empty set.
type SeenSet struct {
	set mapset.Set[string]
}

// NewSeenSet builds a set from stored identities.
func NewSeenSet(ids ...string) SeenSet {
	return SeenSet{set: mapset.NewThreadUnsafeSet(ids...)}
}

func (s SeenSet) items() mapset.Set[string] {
	if s.set == nil {
		return mapset.NewThreadUnsafeSet[string]()
	}
	return s.set
}

// Contains reports whether id has been seen.
func (s SeenSet) Contains(id string) bool {
	return s.set != nil && s.set.Contains(id)
}

// Len returns the number of identities in the set.
func (s SeenSet) Len() int {
	if s.set == nil {
		return 0
	}
	return s.set.Cardinality()
}

// Union returns a new set holding the identities of both sets.
func (s SeenSet) Union(other SeenSet) SeenSet {
	return SeenSet{set: s.items().Union(other.items())}
}

// Slice returns the identities in ascending order, ready to persist.
func (s SeenSet) Slice() []string {
	ids := s.items().ToSlice()
	slices.Sort(ids)
	return ids
}

// Result is the outcome of diffing one run's postings against a SeenSet.
type Result struct {
	New     []model.Posting // postings not seen before, in arrival order
	Current SeenSet         // identities of this run's postings
	Updated SeenSet         // previously seen ∪ current, to persist
}

// Diff splits current into postings whose identity is not in seen and
// computes the set to persist. When several postings share an identity only
// the first one is reported.
func Diff(current []model.Posting, seen SeenSet) Result {
	cur := mapset.NewThreadUnsafeSet[string]()
	var fresh []model.Posting
	for _, p := range current {
		id := Identity(p)
		if !cur.Add(id) {
			continue
		}
		if !seen.Contains(id) {
			fresh = append(fresh, p)
		}
	}

	currentSet := SeenSet{set: cur}
	return Result{
		New:     fresh,
		Current: currentSet,
		Updated: seen.Union(currentSet),
	}
}
