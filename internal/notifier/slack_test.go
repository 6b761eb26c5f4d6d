package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/jobalert/internal/model"
)

func TestSlackGateway_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewSlackGateway(srv.URL, srv.Client(), discardLogger())
	err := g.Send(context.Background(), model.Message{
		Title: "New Job Alert (Golang)",
		Body:  "Acme\nEngineer\nhttp://a",
	})
	if err != nil {
		t.Fatalf("Send() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if payload.Text != "New Job Alert (Golang)" {
		t.Errorf("fallback text = %q", payload.Text)
	}
	if len(payload.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" || payload.Blocks[0].Text.Text != "🚀 New Job Alert (Golang)" {
		t.Errorf("header block = %+v", payload.Blocks[0])
	}
	if payload.Blocks[1].Type != "section" || payload.Blocks[1].Text.Text != "Acme\nEngineer\nhttp://a" {
		t.Errorf("section block = %+v", payload.Blocks[1])
	}
	if payload.Blocks[2].Type != "divider" {
		t.Errorf("block[2] type = %q, want divider", payload.Blocks[2].Type)
	}
}

func TestSlackGateway_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewSlackGateway(srv.URL, srv.Client(), discardLogger())
	err := g.Send(context.Background(), model.Message{Title: "t", Body: "b"})

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.StatusCode)
	}
}

func TestSlackGateway_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewSlackGateway(srv.URL, srv.Client(), discardLogger())
	if err := g.Send(context.Background(), model.Message{Title: "t", Body: "b"}); err == nil {
		t.Error("expected error for 500 response, got nil")
	}
}
