// Package notification provides the Telegram command surface and the alert
// dispatcher.
package notification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/wallet"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Command pattern regex for the portfolio lookup
var portfolioRegexp = regexp.MustCompile(`/portfolio\s+(?P<address>\S+)`)

const commandTimeout = 15 * time.Second

// TelegramSettings configures the bot, its authorized users and the chat
// that receives alerts. With an empty user list commands stay public and
// AlertChat is the only alert destination.
type TelegramSettings struct {
	Token     string
	Users     []int
	AlertChat int64
}

// Telegram implements the core.NotifierWithStart interface
type telegram struct {
	settings    TelegramSettings
	quoter      core.Quoter
	wallet      *wallet.Client
	limiter     *RateLimiter
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
}

// Option is a function that configures a telegram instance
type Option func(telegram *telegram)

// WithRateLimiter overrides the per-user command limiter.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(t *telegram) {
		t.limiter = limiter
	}
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(quoter core.Quoter, walletClient *wallet.Client, settings TelegramSettings, options ...Option) (core.NotifierWithStart, error) {
	// Initialize menu and poller
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	// Create user authorization middleware
	userMiddleware := createAuthMiddleware(poller, settings)

	// Initialize bot client
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	// Setup keyboard and commands
	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	// Create and configure bot instance
	bot := &telegram{
		settings:    settings,
		quoter:      quoter,
		wallet:      walletClient,
		limiter:     NewRateLimiter(DefaultRateLimit, DefaultRateWindow),
		defaultMenu: menu,
		client:      client,
	}

	// Apply custom options if provided
	for _, option := range options {
		option(bot)
	}

	// Register command handlers
	registerHandlers(client, bot)

	return bot, nil
}

// createAuthMiddleware creates a middleware to validate authorized users.
// An empty user list leaves commands open to everyone.
func createAuthMiddleware(poller *tb.LongPoller, settings TelegramSettings) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if len(settings.Users) == 0 || slices.Contains(settings.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		priceBtn     = menu.Text("/price")
		statsBtn     = menu.Text("/stats")
		portfolioBtn = menu.Text("/portfolio")
		helpBtn      = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(priceBtn, statsBtn),
		menu.Row(portfolioBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "help", Description: "Display help instructions"},
		{Text: "price", Description: "Current composite TICS price"},
		{Text: "stats", Description: "Per-exchange price breakdown"},
		{Text: "portfolio", Description: "Presale holdings by wallet address"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *telegram) {
	client.Handle("/start", bot.StartHandle)
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/price", bot.PriceHandle)
	client.Handle("/stats", bot.StatsHandle)
	client.Handle("/portfolio", bot.PortfolioHandle)
}

// Start begins the Telegram bot and notifies all authorized users
func (t *telegram) Start() {
	go t.client.Start()
	t.sendMessageWithOptions("Bot initialized.", t.defaultMenu)
}

// recipients returns every notification destination: the authorized users
// plus the alert chat, when one is configured.
func (t *telegram) recipients() []tb.Recipient {
	recipients := make([]tb.Recipient, 0, len(t.settings.Users)+1)
	for _, user := range t.settings.Users {
		recipients = append(recipients, &tb.User{ID: int64(user)})
	}
	if t.settings.AlertChat != 0 {
		recipients = append(recipients, &tb.Chat{ID: t.settings.AlertChat})
	}
	return recipients
}

// Notify sends a message to all notification destinations
func (t *telegram) Notify(text string) {
	for _, recipient := range t.recipients() {
		_, err := t.client.Send(recipient, text)
		if err != nil {
			log.WithError(err).Error("failed to send notification")
		}
	}
}

// sendMessageWithOptions sends a message to all notification destinations with additional options
func (t *telegram) sendMessageWithOptions(text string, options ...interface{}) {
	for _, recipient := range t.recipients() {
		_, err := t.client.Send(recipient, text, options...)
		if err != nil {
			log.WithError(err).Error("failed to send notification with options")
		}
	}
}

// sendMessage sends a message to a specific user
func (t *telegram) sendMessage(to *tb.User, text string, options ...interface{}) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

// allow applies the per-user rate limit to a command
func (t *telegram) allow(m *tb.Message) bool {
	if t.limiter.Allow(int64(m.Sender.ID)) {
		return true
	}

	t.sendMessage(m.Sender, "Too many requests, please wait a moment.")
	return false
}

// StartHandle greets the user and shows the keyboard
func (t *telegram) StartHandle(m *tb.Message) {
	t.sendMessage(m.Sender, "Welcome to the TICS bot. Use /price to get the current composite quote.", t.defaultMenu)
}

// HelpHandle displays available commands
func (t *telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		log.WithError(err).Error("failed to get commands")
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// PriceHandle replies with the current composite quote
func (t *telegram) PriceHandle(m *tb.Message) {
	if !t.allow(m) {
		return
	}

	quote, err := t.composite()
	if err != nil {
		if errors.Is(err, core.ErrNoTickerData) {
			t.sendMessage(m.Sender, "No price data available right now, please try again soon.")
			return
		}
		t.OnError(err)
		return
	}

	t.sendMessage(m.Sender, formatQuoteMessage(quote))
}

// StatsHandle replies with the per-exchange breakdown
func (t *telegram) StatsHandle(m *tb.Message) {
	if !t.allow(m) {
		return
	}

	quote, err := t.composite()
	if err != nil {
		if errors.Is(err, core.ErrNoTickerData) {
			t.sendMessage(m.Sender, "No price data available right now, please try again soon.")
			return
		}
		t.OnError(err)
		return
	}

	t.sendMessage(m.Sender, formatStatsMessage(quote))
}

// PortfolioHandle looks up presale holdings for a wallet address
func (t *telegram) PortfolioHandle(m *tb.Message) {
	if !t.allow(m) {
		return
	}

	t.sendMessage(m.Sender, t.portfolioMessage(m.Text))
}

// portfolioMessage resolves the reply for a /portfolio command. The wallet
// client is optional; without one the command reports itself unavailable.
func (t *telegram) portfolioMessage(text string) string {
	if t.wallet == nil {
		return "Portfolio lookup is not configured."
	}

	match := portfolioRegexp.FindStringSubmatch(text)
	if len(match) == 0 {
		return "Usage: `/portfolio 0x...` (wallet address)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	portfolio, err := t.wallet.Portfolio(ctx, match[1])
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return "That doesn't look like a wallet address. Expected `0x` followed by 40 hex digits."
	case errors.Is(err, core.ErrWalletNotFound):
		return "Wallet not found in the presale registry."
	case err != nil:
		log.WithError(err).Error("portfolio lookup failed")
		return "Lookup failed, please try again later."
	}

	return fmt.Sprintf("*PRESALE PORTFOLIO*\nTokens: `%s TICS`\nClaim wallet: `%s`",
		portfolio.TotalTokens.String(), portfolio.ClaimWalletAddress)
}

func (t *telegram) composite() (core.CompositeQuote, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return t.quoter.Composite(ctx)
}

// OnAlert notifies users about a classified transfer
func (t *telegram) OnAlert(alert core.Alert) {
	t.Notify(formatAlertMessage(alert))
}

// OnError notifies users about errors
func (t *telegram) OnError(err error) {
	t.Notify(fmt.Sprintf("🛑 ERROR\n-----\n%s", err.Error()))
}
