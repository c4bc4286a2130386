package ticsbot

import (
	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/raykavin/ticsbot/pkg/wallet"
)

// WithLogger overrides the default logger
func WithLogger(log logger.Logger) Option {
	return func(bot *Ticsbot) {
		bot.logger = log
	}
}

// WithLogLevel sets the log level. eg: logger.DebugLevel, logger.InfoLevel, logger.WarnLevel
func WithLogLevel(level logger.Level) Option {
	return func(bot *Ticsbot) {
		bot.logger.SetLevel(level)
	}
}

// WithNotifier registers a notifier to the bot instead of the built-in Telegram bot
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Ticsbot) {
		bot.notifier = notifier
	}
}

// WithConnector registers an additional exchange connector
func WithConnector(connector core.Connector) Option {
	return func(bot *Ticsbot) {
		bot.connectors = append(bot.connectors, connector)
	}
}

// WithWalletClient overrides the presale wallet client
func WithWalletClient(client *wallet.Client) Option {
	return func(bot *Ticsbot) {
		bot.wallet = client
	}
}
