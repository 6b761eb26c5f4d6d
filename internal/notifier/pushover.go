package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amishk599/jobalert/internal/model"
)

const (
	pushoverAPIURL = "https://api.pushover.net/1/messages.json"
	// pushoverMessageLimit is the maximum message length Pushover accepts.
	pushoverMessageLimit = 1024
)

var _ model.Gateway = (*PushoverGateway)(nil)

// PushoverGateway delivers messages through the Pushover messages API.
type PushoverGateway struct {
	apiURL     string
	token      string
	user       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPushoverGateway returns a gateway authenticated with an application
// token and a user (or group) key.
func NewPushoverGateway(token, user string, httpClient *http.Client, logger *slog.Logger) *PushoverGateway {
	return &PushoverGateway{
		apiURL:     pushoverAPIURL,
		token:      token,
		user:       user,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (g *PushoverGateway) TargetsDevices() bool { return true }

func (g *PushoverGateway) MessageLimit() int { return pushoverMessageLimit }

// Send posts one message. Anything other than 200 is returned as *model.HTTPError.
func (g *PushoverGateway) Send(ctx context.Context, msg model.Message) error {
	form := url.Values{}
	form.Set("token", g.token)
	form.Set("user", g.user)
	form.Set("title", msg.Title)
	form.Set("message", msg.Body)
	form.Set("priority", strconv.Itoa(msg.Priority))
	if msg.Device != "" {
		form.Set("device", msg.Device)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to pushover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NewHTTPError(resp)
	}
	g.logger.Debug("pushover message sent", "title", msg.Title, "device", msg.Device)
	return nil
}
