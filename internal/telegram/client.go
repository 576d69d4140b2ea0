// Package telegram adapts the Telegram Bot API to the destination and command
// interfaces of the bridge.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hldsbot/hldsbot-go/internal/destination"
)

// MaxMessageLength is the Bot API limit on message text, in characters.
const MaxMessageLength = 4096

// Client is a destination.Client backed by the Bot API. It is safe for
// concurrent use.
type Client struct {
	bot *tgbotapi.BotAPI
	log *slog.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// WithEndpoint overrides the Bot API endpoint. The format takes the token and
// the method name, like tgbotapi.APIEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithLogger sets the logger. A nil logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// New authenticates with token and returns a Client.
func New(token string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		endpoint:   tgbotapi.APIEndpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, cfg.endpoint, cfg.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", classifyError(err))
	}
	cfg.logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return &Client{bot: bot, log: cfg.logger}, nil
}

// SendMessage implements destination.Client.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, truncate(text, MaxMessageLength))); err != nil {
		return classifyError(err)
	}
	return nil
}

// CreateInviteLink implements destination.Client.
func (c *Client) CreateInviteLink(ctx context.Context, chatID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := c.bot.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", classifyError(err)
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link: %w", err)
	}
	return link.InviteLink, nil
}

// truncate shortens text to at most n characters, marking the cut with an
// ellipsis. Over-long texts are rejected with 400, which would otherwise
// mark the destination unavailable.
func truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n-1]) + "…"
}

// classifyError marks Bot API rejections that will not go away on retry.
// 400 covers unknown or deleted chats, 403 a bot that was removed or lacks
// rights.
func classifyError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusForbidden:
			return fmt.Errorf("%w: telegram %d: %s", destination.ErrPermanent, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("telegram %d: %s", apiErr.Code, apiErr.Message)
	}
	return err
}

var _ destination.Client = (*Client)(nil)
