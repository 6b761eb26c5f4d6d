package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobalert/internal/model"
)

func TestLogGateway_Send(t *testing.T) {
	var buf bytes.Buffer
	g := NewLogGateway(slog.New(slog.NewTextHandler(&buf, nil)))

	err := g.Send(context.Background(), model.Message{Title: "New Job Alert (Golang)", Body: "Acme", Device: "iphone"})
	if err != nil {
		t.Errorf("Send() = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"job alert", `title="New Job Alert (Golang)"`, "device=iphone", "body=Acme"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLogGateway_OmitsEmptyDevice(t *testing.T) {
	var buf bytes.Buffer
	g := NewLogGateway(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := g.Send(context.Background(), model.Message{Title: "t", Body: "b"}); err != nil {
		t.Errorf("Send() = %v, want nil", err)
	}
	if strings.Contains(buf.String(), "device=") {
		t.Errorf("unexpected device attr: %s", buf.String())
	}
}
