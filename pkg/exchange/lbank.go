package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/raykavin/ticsbot/pkg/ticker"
)

const (
	lbankRestURL        = "https://api.lbkex.com/v2/ticker/24hr.do"
	DefaultPollInterval = 15 * time.Second
)

// LBank is a pull connector: it polls the 24h ticker endpoint on a fixed
// interval. A failed poll marks the feed unhealthy but keeps stale data.
type LBank struct {
	store    *ticker.Store
	symbol   string
	interval time.Duration
	log      logger.Logger
	client   *http.Client
	restURL  string
}

type LBankOption func(*LBank)

// WithLBankInterval overrides the polling interval.
func WithLBankInterval(d time.Duration) LBankOption {
	return func(l *LBank) {
		l.interval = d
	}
}

// WithLBankEndpoint overrides the REST endpoint, used by tests.
func WithLBankEndpoint(url string) LBankOption {
	return func(l *LBank) {
		l.restURL = url
	}
}

func NewLBank(store *ticker.Store, log logger.Logger, symbol string, options ...LBankOption) *LBank {
	connector := &LBank{
		store:    store,
		symbol:   symbol,
		interval: DefaultPollInterval,
		log:      log.WithField("exchange", "lbank"),
		client:   &http.Client{Timeout: 10 * time.Second},
		restURL:  lbankRestURL,
	}

	for _, option := range options {
		option(connector)
	}

	store.Register(connector.Name())
	return connector
}

// Name implements core.Connector.
func (l *LBank) Name() string { return "lbank" }

// Run implements core.Connector. It polls until the context ends.
func (l *LBank) Run(ctx context.Context) {
	l.poll(ctx)

	poller := time.NewTicker(l.interval)
	defer poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poller.C:
			l.poll(ctx)
		}
	}
}

func (l *LBank) poll(ctx context.Context) {
	snapshot, err := l.FetchTicker(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.log.WithError(err).Warn("ticker poll failed")
		}
		l.store.SetDisconnected(l.Name())
		return
	}

	snapshot.Connected = true
	l.store.Set(l.Name(), snapshot)
}

type lbankResponse struct {
	Result string `json:"result"`
	Data   []struct {
		Symbol string `json:"symbol"`
		Ticker struct {
			Latest json.Number `json:"latest"`
			High   json.Number `json:"high"`
			Low    json.Number `json:"low"`
			Volume json.Number `json:"vol"`
		} `json:"ticker"`
	} `json:"data"`
}

// FetchTicker implements core.TickerFetcher. The pull connector reuses it
// for its own polling pass.
func (l *LBank) FetchTicker(ctx context.Context) (core.TickerSnapshot, error) {
	url := fmt.Sprintf("%s?symbol=%s", l.restURL, l.symbol)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	response, err := l.client.Do(request)
	if err != nil {
		return core.TickerSnapshot{}, fmt.Errorf("lbank 24h ticker: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return core.TickerSnapshot{}, fmt.Errorf("lbank 24h ticker: status %d", response.StatusCode)
	}

	payload, err := parseLBankResponse(response.Body)
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	return payload, nil
}

func parseLBankResponse(body io.Reader) (core.TickerSnapshot, error) {
	var payload lbankResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return core.TickerSnapshot{}, fmt.Errorf("lbank decode: %w", err)
	}

	if payload.Result != "true" || len(payload.Data) == 0 {
		return core.TickerSnapshot{}, fmt.Errorf("lbank: unsuccessful response (result=%q)", payload.Result)
	}

	entry := payload.Data[0].Ticker
	price, err := parsePositive(entry.Latest.String())
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	return core.TickerSnapshot{
		Price:     price,
		Volume:    parseLenient(entry.Volume.String()),
		High:      parseLenient(entry.High.String()),
		Low:       parseLenient(entry.Low.String()),
		UpdatedAt: time.Now(),
	}, nil
}
