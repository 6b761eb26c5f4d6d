package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amishk599/jobalert/internal/model"
)

const (
	adzunaBaseURL       = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize      = 50
	adzunaSourceLabel   = "adzuna"
	adzunaDefaultRegion = "gb"
)

var _ model.ListingSource = (*AdzunaSource)(nil)

// adzunaResponse mirrors the top-level Adzuna search response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     adzunaName `json:"company"`
	Location    adzunaName `json:"location"`
	RedirectURL string     `json:"redirect_url"`
	Created     string     `json:"created"`
}

type adzunaName struct {
	DisplayName string `json:"display_name"`
}

// AdzunaSource queries the Adzuna job search API.
type AdzunaSource struct {
	appID   string
	appKey  string
	country string
	client  *http.Client
	now     func() time.Time
}

// NewAdzunaSource creates a source for the given country code ("gb", "us", ...).
func NewAdzunaSource(appID, appKey, country string, client *http.Client) *AdzunaSource {
	if country == "" {
		country = adzunaDefaultRegion
	}
	return &AdzunaSource{
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  client,
		now:     time.Now,
	}
}

// Scrape pages through the search results, newest first, until q.MaxResults
// postings are collected or a short page is returned. Adzuna filters age in
// whole days, so postings older than q.MaxAgeHours are dropped here.
func (a *AdzunaSource) Scrape(ctx context.Context, q model.Query) ([]model.Posting, error) {
	if a.appID == "" || a.appKey == "" {
		return nil, errors.New("adzuna search: app_id and app_key are required")
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var cutoff time.Time
	if q.MaxAgeHours > 0 {
		cutoff = a.now().Add(-time.Duration(q.MaxAgeHours) * time.Hour)
	}

	var postings []model.Posting
	for page := 1; len(postings) < maxResults; page++ {
		batch, err := a.fetchPage(ctx, q, page)
		if err != nil {
			return nil, fmt.Errorf("adzuna search for %q page %d: %w", q.Term, page, err)
		}
		for _, r := range batch {
			if !cutoff.IsZero() && createdBefore(r.Created, cutoff) {
				continue
			}
			postings = append(postings, model.Posting{
				Company:  plainText(r.Company.DisplayName),
				Title:    plainText(r.Title),
				URL:      r.RedirectURL,
				Location: plainText(r.Location.DisplayName),
				Source:   adzunaSourceLabel,
			})
		}
		if len(batch) < adzunaPageSize {
			break
		}
	}

	if len(postings) > maxResults {
		postings = postings[:maxResults]
	}
	return postings, nil
}

func (a *AdzunaSource) fetchPage(ctx context.Context, q model.Query, page int) ([]adzunaResult, error) {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", q.Term.Query())
	if q.Location != "" {
		params.Set("where", q.Location)
	}
	if q.MaxAgeHours > 0 {
		params.Set("max_days_old", strconv.Itoa((q.MaxAgeHours+23)/24))
	}
	params.Set("sort_by", "date")

	reqURL := fmt.Sprintf("%s/%s/search/%d?%s", adzunaBaseURL, a.country, page, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewHTTPError(resp)
	}

	var apiResp adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return apiResp.Results, nil
}

// createdBefore reports whether an RFC 3339 timestamp is older than cutoff.
// Unparseable timestamps are kept.
func createdBefore(created string, cutoff time.Time) bool {
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return false
	}
	return t.Before(cutoff)
}
