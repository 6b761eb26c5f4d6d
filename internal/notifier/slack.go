package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/jobalert/internal/model"
)

// slackSectionLimit is the maximum length of a Block Kit section text.
const slackSectionLimit = 3000

var _ model.Gateway = (*SlackGateway)(nil)

// SlackGateway posts alerts to a Slack channel via Incoming Webhooks.
type SlackGateway struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackGateway returns a gateway that posts each message to webhookURL.
func NewSlackGateway(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackGateway {
	return &SlackGateway{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *SlackGateway) MessageLimit() int { return slackSectionLimit }

// Send posts msg as a Block Kit message. A 429 carries Retry-After back to
// the caller's retry policy.
func (s *SlackGateway) Send(ctx context.Context, msg model.Message) error {
	body, err := json.Marshal(buildPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NewHTTPError(resp)
	}
	s.logger.Debug("slack message sent", "title", msg.Title)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// buildPayload renders a header with the title, the body as a plain section
// and a closing divider. Text doubles as the fallback for notifications.
func buildPayload(msg model.Message) slackPayload {
	return slackPayload{
		Text: msg.Title,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: "🚀 " + msg.Title}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: msg.Body}},
			{Type: "divider"},
		},
	}
}
