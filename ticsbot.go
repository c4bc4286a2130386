package ticsbot

import (
	"context"
	"fmt"
	"sync"

	"github.com/raykavin/ticsbot/internal/config"
	"github.com/raykavin/ticsbot/pkg/chain"
	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/exchange"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/raykavin/ticsbot/pkg/notification"
	"github.com/raykavin/ticsbot/pkg/ticker"
	"github.com/raykavin/ticsbot/pkg/wallet"
	"github.com/shopspring/decimal"
)

// DefaultLog is the shared application logger, configured in init.go.
var DefaultLog logger.Logger

// Ticsbot wires the exchange connectors, the composite quoter, the chain
// watcher and the Telegram bot together.
type Ticsbot struct {
	settings *config.Settings
	logger   logger.Logger

	store      *ticker.Store
	aggregator *ticker.Aggregator
	connectors []core.Connector
	watcher    *chain.Watcher
	wallet     *wallet.Client
	telegram   core.NotifierWithStart
	notifier   core.Notifier
}

type Option func(*Ticsbot)

// NewBot creates a new Ticsbot instance with the provided settings
func NewBot(settings *config.Settings, options ...Option) (*Ticsbot, error) {
	bot := &Ticsbot{
		settings: settings,
		logger:   DefaultLog,
		store:    ticker.NewStore(),
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	binanceConn, mexcConn := initializeConnectors(bot)
	initializeAggregator(bot, binanceConn, mexcConn)

	if err := initializeWallet(bot); err != nil {
		return nil, err
	}
	if err := initializeNotifications(bot); err != nil {
		return nil, err
	}

	initializeWatcher(bot)

	return bot, nil
}

// initializeConnectors sets up one connector per exchange, keeping any
// connectors added through options. Binance and MEXC double as the REST
// fallbacks, so their instances are returned for the aggregator.
func initializeConnectors(bot *Ticsbot) (*exchange.Binance, *exchange.MEXC) {
	exchanges := bot.settings.Exchanges
	binanceConn := exchange.NewBinance(bot.store, bot.logger, exchanges.BinancePair)
	mexcConn := exchange.NewMEXC(bot.store, bot.logger, exchanges.MEXCSymbol)

	bot.connectors = append(bot.connectors,
		binanceConn,
		mexcConn,
		exchange.NewLBank(bot.store, bot.logger, exchanges.LBankSymbol,
			exchange.WithLBankInterval(exchanges.PollInterval)),
	)

	return binanceConn, mexcConn
}

// initializeAggregator sets up the composite quoter, reusing the push
// connectors as one-shot REST fallbacks for stale or disconnected feeds
func initializeAggregator(bot *Ticsbot, binanceConn *exchange.Binance, mexcConn *exchange.MEXC) {
	options := []ticker.AggregatorOption{
		ticker.WithFallback(binanceConn.Name(), binanceConn),
		ticker.WithFallback(mexcConn.Name(), mexcConn),
	}
	if bot.settings.Ticker.Freshness > 0 {
		options = append(options, ticker.WithFreshness(bot.settings.Ticker.Freshness))
	}

	bot.aggregator = ticker.NewAggregator(bot.store, bot.logger, options...)
}

// initializeWallet sets up the presale portfolio client
func initializeWallet(bot *Ticsbot) error {
	if bot.wallet != nil || bot.settings.Presale.APIURL == "" {
		return nil
	}

	var options []wallet.Option
	if bot.settings.Presale.CacheTTL > 0 {
		options = append(options, wallet.WithCacheTTL(bot.settings.Presale.CacheTTL))
	}

	client, err := wallet.NewClient(bot.settings.Presale.APIURL, bot.logger, options...)
	if err != nil {
		return fmt.Errorf("failed to create wallet client: %w", err)
	}

	bot.wallet = client
	return nil
}

// initializeNotifications sets up the Telegram bot
func initializeNotifications(bot *Ticsbot) error {
	if bot.notifier != nil {
		return nil
	}

	telegram, err := notification.NewTelegram(bot.aggregator, bot.wallet, notification.TelegramSettings{
		Token:     bot.settings.Telegram.Token,
		Users:     bot.settings.Telegram.Users,
		AlertChat: bot.settings.Telegram.AlertChat,
	})
	if err != nil {
		return err
	}

	bot.telegram = telegram
	bot.notifier = telegram
	return nil
}

// initializeWatcher sets up the chain watcher and transfer classifier
func initializeWatcher(bot *Ticsbot) {
	settings := bot.settings.Chain
	rpc := chain.NewClient(settings.RPCURL)

	options := []chain.ClassifierOption{
		chain.WithCEXAddresses(settings.CEXAddresses),
	}
	if settings.TokenContract != "" {
		options = append(options, chain.WithTokenContract(settings.TokenContract))
	}
	if settings.MinAmount > 0 {
		options = append(options, chain.WithMinAmount(decimal.NewFromFloat(settings.MinAmount)))
	}
	if settings.WhaleThreshold > 0 {
		options = append(options, chain.WithWhaleThreshold(decimal.NewFromFloat(settings.WhaleThreshold)))
	}

	classifier := chain.NewClassifier(rpc, bot.aggregator, bot.notifier, bot.logger, options...)
	bot.watcher = chain.NewWatcher(rpc, settings.WSURL, classifier, bot.logger)
}

// Quoter exposes the composite quoter, mainly for embedding callers.
func (t *Ticsbot) Quoter() core.Quoter {
	return t.aggregator
}

// Run starts every connector, the chain watcher and the Telegram bot, then
// blocks until the context is canceled.
func (t *Ticsbot) Run(ctx context.Context) error {
	t.logger.Info("[SETUP] Starting ticsbot")

	var wg sync.WaitGroup
	for _, connector := range t.connectors {
		wg.Add(1)
		go func(connector core.Connector) {
			defer wg.Done()
			connector.Run(ctx)
		}(connector)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		t.watcher.Run(ctx)
	}()

	if t.telegram != nil {
		t.telegram.Start()
	}

	wg.Wait()

	if t.wallet != nil {
		if err := t.wallet.Close(); err != nil {
			t.logger.WithError(err).Warn("failed to close wallet cache")
		}
	}

	return nil
}
