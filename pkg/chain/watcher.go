package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/raykavin/ticsbot/pkg/logger"
)

const (
	// reconnectDelay is the fixed wait between subscription restarts.
	reconnectDelay = 5 * time.Second
	headReadWait   = 2 * time.Minute
)

// Watcher subscribes to new block heads over the node websocket and feeds
// each block's transactions to the classifier, one at a time.
type Watcher struct {
	rpc        *Client
	wsURL      string
	classifier *Classifier
	log        logger.Logger

	lastBlockHash string
}

func NewWatcher(rpc *Client, wsURL string, classifier *Classifier, log logger.Logger) *Watcher {
	return &Watcher{
		rpc:        rpc,
		wsURL:      wsURL,
		classifier: classifier,
		log:        log,
	}
}

// Run keeps the head subscription alive until the context ends. Retries are
// unbounded with a fixed delay.
func (w *Watcher) Run(ctx context.Context) {
	retry := &backoff.Backoff{Min: reconnectDelay, Max: reconnectDelay}

	for {
		if err := w.subscribe(ctx); err != nil && ctx.Err() == nil {
			w.log.WithError(err).Warn("head subscription dropped, scheduling reconnect")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry.Duration()):
		}
	}
}

type subscribeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type head struct {
	Number string `json:"number"`
	Hash   string `json:"hash"`
}

type headNotification struct {
	Method string `json:"method"`
	Params struct {
		Result head `json:"result"`
	} `json:"params"`
}

func (w *Watcher) subscribe(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("chain ws dial: %w", err)
	}
	defer conn.Close()

	request := subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []any{"newHeads"},
	}
	if err := conn.WriteJSON(request); err != nil {
		return fmt.Errorf("chain ws subscribe: %w", err)
	}

	// Close the connection when the context ends so the read loop unblocks.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-streamCtx.Done()
		_ = conn.Close()
	}()

	w.log.WithField("url", w.wsURL).Info("subscribed to new block heads")

	for {
		_ = conn.SetReadDeadline(time.Now().Add(headReadWait))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("chain ws read: %w", err)
		}

		var notification headNotification
		if err := json.Unmarshal(payload, &notification); err != nil {
			w.log.WithError(err).Debug("dropping malformed head frame")
			continue
		}
		if notification.Method != "eth_subscription" || notification.Params.Result.Hash == "" {
			// Subscription confirmation or unrelated frame.
			continue
		}

		w.onHead(ctx, notification.Params.Result)
	}
}

// onHead processes one head notification. A failed block fetch is logged
// and dropped; the next head is handled independently.
func (w *Watcher) onHead(ctx context.Context, h head) {
	if h.Hash == w.lastBlockHash {
		return
	}
	w.lastBlockHash = h.Hash

	block, err := w.rpc.BlockByNumber(ctx, h.Number)
	if err != nil {
		w.log.WithError(err).WithField("block", h.Number).Warn("block fetch failed")
		return
	}

	w.log.WithFields(map[string]any{
		"block": h.Number,
		"txs":   len(block.Transactions),
	}).Debug("processing block")

	for _, tx := range block.Transactions {
		w.classifier.ProcessTransaction(ctx, tx)
	}
}
