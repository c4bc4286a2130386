package core

import "context"

// Connector maintains the freshest possible ticker for one exchange. Run
// blocks until the context is done, reconnecting or re-polling internally.
type Connector interface {
	Name() string
	Run(ctx context.Context)
}

// TickerFetcher is the optional one-shot REST side of a connector, used by
// the aggregator as a staleness fallback.
type TickerFetcher interface {
	FetchTicker(ctx context.Context) (TickerSnapshot, error)
}

// Quoter produces a composite quote on demand.
type Quoter interface {
	Composite(ctx context.Context) (CompositeQuote, error)
}

// Notifier is the alert dispatcher boundary. Implementations own delivery
// and must swallow delivery failures.
type Notifier interface {
	Notify(text string)
	OnAlert(alert Alert)
	OnError(err error)
}

// NotifierWithStart is a notifier with a long-running receive loop, such as
// the Telegram bot.
type NotifierWithStart interface {
	Notifier
	Start()
}
