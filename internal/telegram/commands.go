package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/hldsbot/hldsbot-go/internal/destination"
)

const (
	// CommandRateLimit is the maximum number of commands answered per second.
	CommandRateLimit = 2

	// CommandBurst is the number of commands answered back to back.
	CommandBurst = 5

	// RepositoryURL is advertised by /info.
	RepositoryURL = "https://github.com/hldsbot/hldsbot-go"
)

// ServerInfo describes the game server advertised by /info.
type ServerInfo struct {
	Version string
	Game    string
	Host    string
	Port    int
}

// Commands answers the bot's chat commands.
type Commands struct {
	destinations *destination.Set
	admins       map[int64]struct{}
	info         ServerInfo
	limiter      *rate.Limiter
	log          *slog.Logger
}

// NewCommands returns a command handler. Only users in adminIDs see the
// private destination in /channels.
func NewCommands(destinations *destination.Set, adminIDs []int64, info ServerInfo, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Commands{
		destinations: destinations,
		admins:       admins,
		info:         info,
		limiter:      rate.NewLimiter(CommandRateLimit, CommandBurst),
		log:          logger,
	}
}

// Reply returns the answer to command sent by userID. ok is false for
// unknown commands and when the rate limit is exceeded.
func (c *Commands) Reply(ctx context.Context, userID int64, command string) (reply string, ok bool) {
	switch command {
	case "start", "info", "channels":
	default:
		return "", false
	}
	if !c.limiter.Allow() {
		c.log.Debug("command dropped by rate limit", "command", command, "user", userID)
		return "", false
	}

	switch command {
	case "start":
		return "👋 This is a HLDS bot that fetches events from server and posts them to several channels.", true
	case "info":
		return fmt.Sprintf("ℹ️ HLDS Notifier Bot: version %s, repo origin url %s. Fetching events from %s, waiting for you to join on %s:%d",
			c.info.Version, RepositoryURL, c.info.Game, c.info.Host, c.info.Port), true
	default:
		return c.channels(ctx, userID), true
	}
}

// channels lists an invite link for every destination the user may see.
// Requesting a link re-probes the destination, so this is also how an
// unavailable destination becomes available again.
func (c *Commands) channels(ctx context.Context, userID int64) string {
	var sb strings.Builder
	sb.WriteString("☕️ Available channels:\n\n")

	entries := []struct {
		dst   *destination.Destination
		label string
		admin bool
	}{
		{c.destinations.Public, "🔓 Public channel", false},
		{c.destinations.Private, "🔒 Private channel", true},
		{c.destinations.Chat, "💬 Chat channel", false},
	}
	var lines []string
	for _, e := range entries {
		if e.dst == nil {
			continue
		}
		if _, isAdmin := c.admins[userID]; e.admin && !isAdmin {
			continue
		}
		link, err := e.dst.InviteLink(ctx)
		if err != nil {
			c.log.Warn("invite link unavailable", "destination", e.dst, "error", err)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", e.label, link))
	}
	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String()
}

// Serve polls the Bot API for messages and answers commands until ctx is
// cancelled.
func (c *Client) Serve(ctx context.Context, commands *Commands) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || !msg.IsCommand() || msg.From == nil || msg.Chat == nil {
				continue
			}
			reply, ok := commands.Reply(ctx, msg.From.ID, msg.Command())
			if !ok {
				continue
			}
			if err := c.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
				c.log.Warn("command reply failed", "command", msg.Command(), "chat", msg.Chat.ID, "error", err)
			}
		}
	}
}
