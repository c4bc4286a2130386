package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/raykavin/ticsbot/pkg/ticker"
)

const (
	mexcWsURL    = "wss://wbs.mexc.com/ws"
	mexcRestURL  = "https://api.mexc.com/api/v3/ticker/24hr"
	mexcPingWait = 20 * time.Second
	mexcReadWait = 60 * time.Second
)

// MEXC streams the mini ticker channel over a raw websocket and falls back
// to the spot REST API.
type MEXC struct {
	store   *ticker.Store
	symbol  string
	log     logger.Logger
	client  *http.Client
	wsURL   string
	restURL string

	writeMu sync.Mutex
}

type MEXCOption func(*MEXC)

// WithMEXCEndpoints overrides the websocket and REST endpoints, used by
// tests.
func WithMEXCEndpoints(wsURL, restURL string) MEXCOption {
	return func(m *MEXC) {
		if wsURL != "" {
			m.wsURL = wsURL
		}
		if restURL != "" {
			m.restURL = restURL
		}
	}
}

func NewMEXC(store *ticker.Store, log logger.Logger, symbol string, options ...MEXCOption) *MEXC {
	connector := &MEXC{
		store:   store,
		symbol:  symbol,
		log:     log.WithField("exchange", "mexc"),
		client:  &http.Client{Timeout: 10 * time.Second},
		wsURL:   mexcWsURL,
		restURL: mexcRestURL,
	}

	for _, option := range options {
		option(connector)
	}

	store.Register(connector.Name())
	return connector
}

// Name implements core.Connector.
func (m *MEXC) Name() string { return "mexc" }

// Run implements core.Connector.
func (m *MEXC) Run(ctx context.Context) {
	Supervise(ctx, m.log, m.Name(), m.stream)
}

type mexcRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
}

type mexcMiniTicker struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Volume string `json:"v"`
}

type mexcMessage struct {
	Channel string          `json:"c"`
	Data    *mexcMiniTicker `json:"d"`
}

func (m *MEXC) stream(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.wsURL, nil)
	if err != nil {
		m.store.SetDisconnected(m.Name())
		return fmt.Errorf("mexc ws dial: %w", err)
	}
	defer conn.Close()

	subscription := mexcRequest{
		Method: "SUBSCRIPTION",
		Params: []string{fmt.Sprintf("spot@public.miniTicker.v3.api@%s@UTC+0", m.symbol)},
	}
	if err := m.writeJSON(conn, subscription); err != nil {
		m.store.SetDisconnected(m.Name())
		return fmt.Errorf("mexc ws subscribe: %w", err)
	}

	// Unblock the read loop when the context ends and keep the upstream
	// connection alive with application-level pings.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go m.keepalive(streamCtx, conn)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(mexcReadWait))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.store.SetDisconnected(m.Name())
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("mexc ws read: %w", err)
		}

		m.onMessage(payload)
	}
}

func (m *MEXC) keepalive(ctx context.Context, conn *websocket.Conn) {
	pinger := time.NewTicker(mexcPingWait)
	defer pinger.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-pinger.C:
			if err := m.writeJSON(conn, mexcRequest{Method: "PING"}); err != nil {
				return
			}
		}
	}
}

func (m *MEXC) writeJSON(conn *websocket.Conn, v any) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (m *MEXC) onMessage(payload []byte) {
	snapshot, matched, err := parseMEXCMessage(payload, m.symbol)
	if err != nil {
		m.log.WithError(err).Debug("dropping malformed ticker message")
		m.store.SetDisconnected(m.Name())
		return
	}
	if !matched {
		return
	}

	m.store.Set(m.Name(), snapshot)
}

// parseMEXCMessage decodes a mini ticker frame. matched is false for frames
// of other channels or symbols, which are not errors.
func parseMEXCMessage(payload []byte, symbol string) (core.TickerSnapshot, bool, error) {
	var message mexcMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return core.TickerSnapshot{}, false, fmt.Errorf("decode frame: %w", err)
	}

	if message.Data == nil || message.Data.Symbol != symbol {
		return core.TickerSnapshot{}, false, nil
	}

	price, err := parsePositive(message.Data.Price)
	if err != nil {
		return core.TickerSnapshot{}, false, err
	}

	return core.TickerSnapshot{
		Price:     price,
		Volume:    parseLenient(message.Data.Volume),
		High:      parseLenient(message.Data.High),
		Low:       parseLenient(message.Data.Low),
		UpdatedAt: time.Now(),
		Connected: true,
	}, true, nil
}

type mexcRestTicker struct {
	LastPrice string `json:"lastPrice"`
	HighPrice string `json:"highPrice"`
	LowPrice  string `json:"lowPrice"`
	Volume    string `json:"volume"`
}

// FetchTicker implements core.TickerFetcher against the spot REST API.
func (m *MEXC) FetchTicker(ctx context.Context) (core.TickerSnapshot, error) {
	url := fmt.Sprintf("%s?symbol=%s", m.restURL, m.symbol)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	response, err := m.client.Do(request)
	if err != nil {
		return core.TickerSnapshot{}, fmt.Errorf("mexc 24h ticker: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return core.TickerSnapshot{}, fmt.Errorf("mexc 24h ticker: status %d", response.StatusCode)
	}

	var payload mexcRestTicker
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return core.TickerSnapshot{}, fmt.Errorf("mexc 24h ticker: %w", err)
	}

	price, err := parsePositive(payload.LastPrice)
	if err != nil {
		return core.TickerSnapshot{}, err
	}

	return core.TickerSnapshot{
		Price:     price,
		Volume:    parseLenient(payload.Volume),
		High:      parseLenient(payload.HighPrice),
		Low:       parseLenient(payload.LowPrice),
		UpdatedAt: time.Now(),
	}, nil
}
