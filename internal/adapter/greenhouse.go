package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobalert/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

var _ model.ListingSource = (*GreenhouseSource)(nil)

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	FirstPublished string             `json:"first_published"`
	UpdatedAt      string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseBoard is one company's public job board.
type GreenhouseBoard struct {
	Token   string `yaml:"token"`
	Company string `yaml:"company"`
}

// GreenhouseSource searches a fixed set of Greenhouse boards. A posting
// matches a query when its title contains every word of the term.
type GreenhouseSource struct {
	boards []GreenhouseBoard
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewGreenhouseSource creates a source over the given boards.
func NewGreenhouseSource(boards []GreenhouseBoard, client *http.Client, logger *slog.Logger) *GreenhouseSource {
	return &GreenhouseSource{
		boards: boards,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Scrape fetches every board and keeps the postings matching q. A failing
// board is logged and skipped; the scrape fails only when every board does.
func (s *GreenhouseSource) Scrape(ctx context.Context, q model.Query) ([]model.Posting, error) {
	words := strings.Fields(strings.ToLower(q.Term.Query()))
	place := strings.ToLower(strings.TrimSpace(strings.Split(q.Location, ",")[0]))

	var cutoff time.Time
	if q.MaxAgeHours > 0 {
		cutoff = s.now().Add(-time.Duration(q.MaxAgeHours) * time.Hour)
	}

	var postings []model.Posting
	var errs []error
	for _, b := range s.boards {
		jobs, err := s.fetchBoard(ctx, b.Token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("greenhouse board failed", "board", b.Token, "error", err)
			errs = append(errs, err)
			continue
		}
		for _, gj := range jobs {
			title := strings.ToLower(gj.Title)
			if !containsAll(title, words) {
				continue
			}
			if place != "" && !strings.Contains(strings.ToLower(gj.Location.Name), place) {
				continue
			}
			if !cutoff.IsZero() && publishedBefore(gj, cutoff) {
				continue
			}
			postings = append(postings, model.Posting{
				Company:  b.Company,
				Title:    gj.Title,
				URL:      gj.AbsoluteURL,
				Location: gj.Location.Name,
				Source:   "greenhouse",
			})
		}
	}

	if len(s.boards) > 0 && len(errs) == len(s.boards) {
		return nil, errors.Join(errs...)
	}
	if q.MaxResults > 0 && len(postings) > q.MaxResults {
		postings = postings[:q.MaxResults]
	}
	return postings, nil
}

func (s *GreenhouseSource) fetchBoard(ctx context.Context, token string) ([]greenhouseJob, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, model.NewHTTPError(resp))
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}
	return ghResp.Jobs, nil
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// publishedBefore uses first_published, falling back to updated_at. Jobs
// without a parseable timestamp are kept.
func publishedBefore(gj greenhouseJob, cutoff time.Time) bool {
	ts := gj.FirstPublished
	if ts == "" {
		ts = gj.UpdatedAt
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	return t.Before(cutoff)
}
