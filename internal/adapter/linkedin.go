package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/amishk599/jobalert/internal/model"
)

const (
	linkedInSearchURL   = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedInMaxStart    = 1000 // guest search stops serving results here
	linkedInUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	linkedInSourceLabel = "linkedin"
	defaultMaxResults   = 1000
)

var _ model.ListingSource = (*LinkedInSource)(nil)

// LinkedInSource scrapes the LinkedIn guest job search, one page of result
// cards at a time.
type LinkedInSource struct {
	client *http.Client
	logger *slog.Logger
}

// NewLinkedInSource creates a source that issues its requests through client.
func NewLinkedInSource(client *http.Client, logger *slog.Logger) *LinkedInSource {
	return &LinkedInSource{client: client, logger: logger}
}

// Scrape pages through the search results until q.MaxResults postings are
// collected or a page comes back empty. A failure after the first page ends
// paging and returns what was collected.
func (s *LinkedInSource) Scrape(ctx context.Context, q model.Query) ([]model.Posting, error) {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var postings []model.Posting
	for start := 0; start < linkedInMaxStart && len(postings) < maxResults; {
		page, err := s.fetchPage(ctx, q, start)
		if err != nil {
			if start == 0 || ctx.Err() != nil {
				return nil, fmt.Errorf("linkedin search for %q: %w", q.Term, err)
			}
			s.logger.Warn("linkedin paging stopped early",
				"term", q.Term,
				"start", start,
				"collected", len(postings),
				"error", err,
			)
			break
		}
		if len(page) == 0 {
			break
		}
		postings = append(postings, page...)
		start += len(page)
	}

	if len(postings) > maxResults {
		postings = postings[:maxResults]
	}
	return postings, nil
}

func (s *LinkedInSource) fetchPage(ctx context.Context, q model.Query, start int) ([]model.Posting, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(linkedInUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetClient(s.client)

	var page []model.Posting
	c.OnHTML("div.base-search-card", func(e *colly.HTMLElement) {
		p := model.Posting{
			Title:    strings.TrimSpace(e.ChildText("h3.base-search-card__title")),
			Company:  strings.TrimSpace(e.ChildText("h4.base-search-card__subtitle")),
			URL:      stripQuery(e.ChildAttr("a.base-card__full-link", "href")),
			Location: strings.TrimSpace(e.ChildText("span.job-search-card__location")),
			Source:   linkedInSourceLabel,
		}
		if p.Title == "" || p.Company == "" {
			return
		}
		page = append(page, p)
	})

	var respErr error
	c.OnError(func(r *colly.Response, err error) {
		if r == nil || r.StatusCode == 0 {
			respErr = err
			return
		}
		httpErr := &model.HTTPError{StatusCode: r.StatusCode, Err: err}
		if r.Headers != nil {
			httpErr.RetryAfter = model.ParseRetryAfter(r.Headers.Get("Retry-After"))
		}
		respErr = httpErr
	})

	if err := c.Visit(searchURL(q, start)); err != nil {
		if respErr != nil {
			return nil, respErr
		}
		return nil, err
	}
	if respErr != nil {
		return nil, respErr
	}
	return page, nil
}

func searchURL(q model.Query, start int) string {
	params := url.Values{}
	params.Set("keywords", q.Term.Query())
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.MaxAgeHours > 0 {
		params.Set("f_TPR", "r"+strconv.Itoa(q.MaxAgeHours*3600))
	}
	params.Set("start", strconv.Itoa(start))
	return linkedInSearchURL + "?" + params.Encode()
}

// stripQuery drops tracking parameters from a job link.
func stripQuery(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '?'); i >= 0 {
		return href[:i]
	}
	return href
}
