package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobalert/internal/model"
)

const greenhousePayload = `{
	"jobs": [
		{
			"id": 12345,
			"title": "Senior Product Manager",
			"location": {"name": "London, UK"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
			"first_published": "2026-10-15T10:00:00Z",
			"updated_at": "2026-10-15T10:30:00Z"
		},
		{
			"id": 67890,
			"title": "Product Manager",
			"location": {"name": "Remote, US"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
			"first_published": "2026-10-15T10:00:00Z"
		},
		{
			"id": 11111,
			"title": "Backend Engineer",
			"location": {"name": "London"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/11111",
			"first_published": "2026-10-15T10:00:00Z"
		},
		{
			"id": 22222,
			"title": "Product Manager, Payments",
			"location": {"name": "London"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/22222",
			"first_published": "2026-10-01T10:00:00Z",
			"updated_at": "2026-10-15T11:00:00Z"
		}
	]
}`

func newGreenhouseTestSource(srv *httptest.Server, boards ...GreenhouseBoard) *GreenhouseSource {
	s := NewGreenhouseSource(boards, redirectClient(srv), discardLogger())
	s.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestGreenhouseSource_Scrape_MatchesTermLocationAndAge(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	s := newGreenhouseTestSource(srv, GreenhouseBoard{Token: "acme", Company: "Acme Corp"})
	postings, err := s.Scrape(context.Background(), model.Query{
		Term:        "product_manager",
		Location:    "London, UK",
		MaxAgeHours: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/v1/boards/acme/jobs" {
		t.Errorf("path = %q", path)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d: %+v", len(postings), postings)
	}

	p := postings[0]
	if p.Company != "Acme Corp" || p.Title != "Senior Product Manager" {
		t.Errorf("posting = %+v", p)
	}
	if p.URL != "https://boards.greenhouse.io/acme/jobs/12345" || p.Source != "greenhouse" {
		t.Errorf("posting url/source = %q/%q", p.URL, p.Source)
	}
}

func TestGreenhouseSource_Scrape_NoLocationOrAgeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	s := newGreenhouseTestSource(srv, GreenhouseBoard{Token: "acme", Company: "Acme Corp"})
	postings, err := s.Scrape(context.Background(), model.Query{Term: "product_manager"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 3 {
		t.Errorf("expected 3 product manager postings, got %d", len(postings))
	}
}

func TestGreenhouseSource_Scrape_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	s := newGreenhouseTestSource(srv, GreenhouseBoard{Token: "empty", Company: "Empty Inc"})
	postings, err := s.Scrape(context.Background(), model.Query{Term: "golang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("expected 0 postings, got %d", len(postings))
	}
}

func TestGreenhouseSource_Scrape_OneBoardFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/broken/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	s := newGreenhouseTestSource(srv,
		GreenhouseBoard{Token: "broken", Company: "Broken"},
		GreenhouseBoard{Token: "acme", Company: "Acme Corp"},
	)
	postings, err := s.Scrape(context.Background(), model.Query{Term: "backend_engineer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 || postings[0].Company != "Acme Corp" {
		t.Errorf("expected the healthy board's posting, got %+v", postings)
	}
}

func TestGreenhouseSource_Scrape_AllBoardsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newGreenhouseTestSource(srv, GreenhouseBoard{Token: "acme", Company: "Acme Corp"})
	_, err := s.Scrape(context.Background(), model.Query{Term: "golang"})

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 *model.HTTPError, got %v", err)
	}
}

func TestGreenhouseSource_Scrape_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	s := newGreenhouseTestSource(srv, GreenhouseBoard{Token: "bad", Company: "Bad Corp"})
	if _, err := s.Scrape(context.Background(), model.Query{Term: "golang"}); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}
