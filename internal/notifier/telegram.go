package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/jobalert/internal/model"
)

// telegramMessageLimit is the maximum text length of a Telegram message.
const telegramMessageLimit = 4096

var _ model.Gateway = (*TelegramGateway)(nil)

// TelegramGateway sends alerts to a single Telegram chat through a bot.
// The bot is authenticated on the first Send, not at construction.
type TelegramGateway struct {
	token       string
	apiEndpoint string
	client      *http.Client
	chatID      int64
	logger      *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramGateway creates a gateway for chatID using apiEndpoint
// (tgbotapi.APIEndpoint when empty). No request is made until the first Send.
func NewTelegramGateway(token string, chatID int64, apiEndpoint string, httpClient *http.Client, logger *slog.Logger) *TelegramGateway {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	return &TelegramGateway{
		token:       token,
		apiEndpoint: apiEndpoint,
		client:      httpClient,
		chatID:      chatID,
		logger:      logger,
	}
}

// connect authenticates the bot once. A failed attempt is not cached, so the
// next Send tries again.
func (t *TelegramGateway) connect() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.apiEndpoint, t.client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

// MessageLimit leaves room for the title line prepended to every body.
func (t *TelegramGateway) MessageLimit() int { return telegramMessageLimit - 256 }

// Send posts the title and body as one plain-text message. Telegram API
// errors are returned as *model.HTTPError so flood-wait hints are honoured.
func (t *TelegramGateway) Send(ctx context.Context, msg model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := t.connect()
	if err != nil {
		return err
	}

	m := tgbotapi.NewMessage(t.chatID, msg.Title+"\n\n"+msg.Body)
	m.DisableWebPagePreview = true
	if _, err := bot.Send(m); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return &model.HTTPError{
				StatusCode: apiErr.Code,
				RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
				Err:        errors.New(apiErr.Message),
			}
		}
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.logger.Debug("telegram message sent", "title", msg.Title, "chat_id", t.chatID)
	return nil
}
