package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/raykavin/ticsbot/pkg/ticker"
)

// Binance streams the 24h ticker for one pair over the Binance websocket
// and offers a REST fallback through the same SDK.
type Binance struct {
	store  *ticker.Store
	client *binance.Client
	pair   string
	log    logger.Logger
}

type BinanceOption func(*Binance)

// WithBinanceCredentials sets API credentials. Market data endpoints work
// without them.
func WithBinanceCredentials(key, secret string) BinanceOption {
	return func(b *Binance) {
		b.client = binance.NewClient(key, secret)
	}
}

func NewBinance(store *ticker.Store, log logger.Logger, pair string, options ...BinanceOption) *Binance {
	connector := &Binance{
		store:  store,
		client: binance.NewClient("", ""),
		pair:   pair,
		log:    log.WithField("exchange", "binance"),
	}

	for _, option := range options {
		option(connector)
	}

	store.Register(connector.Name())
	return connector
}

// Name implements core.Connector.
func (b *Binance) Name() string { return "binance" }

// Run implements core.Connector.
func (b *Binance) Run(ctx context.Context) {
	Supervise(ctx, b.log, b.Name(), b.stream)
}

// stream holds one websocket session open until it drops or the context is
// canceled.
func (b *Binance) stream(ctx context.Context) error {
	doneC, stopC, err := binance.WsMarketStatServe(b.pair, b.onEvent, b.onStreamError)
	if err != nil {
		b.store.SetDisconnected(b.Name())
		return fmt.Errorf("binance ws subscribe: %w", err)
	}

	select {
	case <-ctx.Done():
		close(stopC)
		<-doneC
		return ctx.Err()
	case <-doneC:
		b.store.SetDisconnected(b.Name())
		return errors.New("binance ws stream closed")
	}
}

func (b *Binance) onEvent(event *binance.WsMarketStatEvent) {
	if event == nil || event.Symbol != b.pair {
		return
	}

	snapshot, err := convertStatEvent(event)
	if err != nil {
		b.log.WithError(err).Debug("dropping malformed ticker message")
		b.store.SetDisconnected(b.Name())
		return
	}

	b.store.Set(b.Name(), snapshot)
}

func (b *Binance) onStreamError(err error) {
	b.log.WithError(err).Warn("binance ws error")
	b.store.SetDisconnected(b.Name())
}

// FetchTicker implements core.TickerFetcher using the 24h stats REST
// endpoint. The result is a fallback sample and never marked live.
func (b *Binance) FetchTicker(ctx context.Context) (core.TickerSnapshot, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(b.pair).Do(ctx)
	if err != nil {
		return core.TickerSnapshot{}, fmt.Errorf("binance 24h stats: %w", err)
	}
	if len(stats) == 0 {
		return core.TickerSnapshot{}, fmt.Errorf("binance 24h stats: empty response for %s", b.pair)
	}

	price, err := parsePositive(stats[0].LastPrice)
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	return core.TickerSnapshot{
		Price:     price,
		Volume:    parseLenient(stats[0].Volume),
		High:      parseLenient(stats[0].HighPrice),
		Low:       parseLenient(stats[0].LowPrice),
		UpdatedAt: time.Now(),
	}, nil
}

// convertStatEvent normalizes a websocket ticker event into a snapshot.
func convertStatEvent(event *binance.WsMarketStatEvent) (core.TickerSnapshot, error) {
	price, err := parsePositive(event.LastPrice)
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	return core.TickerSnapshot{
		Price:     price,
		Volume:    parseLenient(event.BaseVolume),
		High:      parseLenient(event.HighPrice),
		Low:       parseLenient(event.LowPrice),
		UpdatedAt: time.Now(),
		Connected: true,
	}, nil
}
