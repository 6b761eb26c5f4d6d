package model

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Posting is one scraped job listing, normalized from any source.
type Posting struct {
	Company  string // company name as scraped
	Title    string // job title as scraped
	URL      string // listing link
	Location string // informational only
	Source   string // site the posting came from
}

// SearchTerm is the normalized identifier of a configured query, e.g. "product_manager".
type SearchTerm string

// NormalizeTerm lowercases raw and collapses runs of whitespace and slashes to
// underscores. A term never contains "/", since it is a store path segment.
func NormalizeTerm(raw string) SearchTerm {
	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	return SearchTerm(strings.Join(words, "_"))
}

// Query returns the free text sent to a listing source.
func (t SearchTerm) Query() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// DisplayName returns the title-cased label used in notification titles.
func (t SearchTerm) DisplayName() string {
	return cases.Title(language.English).String(t.Query())
}

func (t SearchTerm) String() string { return string(t) }

// Query is what a ListingSource is asked for.
type Query struct {
	Term        SearchTerm
	Location    string
	MaxResults  int
	MaxAgeHours int
}

// Message is the unit of delivery handed to a Gateway.
type Message struct {
	Title    string
	Body     string
	Device   string // empty = gateway default (all devices)
	Priority int
}

// ListingSource yields the current postings for a query. Zero results is not an error.
type ListingSource interface {
	Scrape(ctx context.Context, q Query) ([]Posting, error)
}

// StateStore is an opaque key-value blob store holding string collections.
type StateStore interface {
	// List returns the immediate child names below path.
	List(ctx context.Context, path string) ([]string, error)
	// Read returns ok=false for a missing key; a missing key is never an error.
	Read(ctx context.Context, key string) (values []string, ok bool, err error)
	// Write replaces the value stored at key.
	Write(ctx context.Context, key string, values []string) error
}

// Gateway delivers a single message to an external push service.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// PostingFilter decides whether a scraped posting is kept before diffing.
type PostingFilter interface {
	Match(p Posting) bool
}
