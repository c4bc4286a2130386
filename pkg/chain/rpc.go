// Package chain watches an EVM node for TICS transfers and classifies them
// into deposit, withdrawal and whale alerts.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// ticsDecimals is the fixed-point scale of on-chain amounts.
const ticsDecimals = 18

// Client is a minimal JSON-RPC 2.0 client for the request/response side of
// the node protocol.
type Client struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Call issues one JSON-RPC request and decodes the result into out.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s: status %d", method, response.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("rpc %s: %d %s", method, decoded.Error.Code, decoded.Error.Message)
	}
	if decoded.Result == nil || string(decoded.Result) == "null" {
		return fmt.Errorf("rpc %s: null result", method)
	}

	return json.Unmarshal(decoded.Result, out)
}

// Transaction is the subset of eth transaction fields the classifier needs.
type Transaction struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Input string `json:"input"`
}

// Block carries full transaction objects, as returned by
// eth_getBlockByNumber(number, true).
type Block struct {
	Number       string        `json:"number"`
	Hash         string        `json:"hash"`
	Transactions []Transaction `json:"transactions"`
}

// Log is one receipt event log.
type Log struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Receipt is the subset of eth_getTransactionReceipt the classifier scans.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	Logs            []Log  `json:"logs"`
}

// BlockByNumber fetches a block with full transaction objects.
func (c *Client) BlockByNumber(ctx context.Context, number string) (*Block, error) {
	var block Block
	if err := c.Call(ctx, "eth_getBlockByNumber", []any{number, true}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// TransactionReceipt fetches the receipt for a transaction hash.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	var receipt Receipt
	if err := c.Call(ctx, "eth_getTransactionReceipt", []any{hash}, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// hexToBig decodes a 0x-prefixed quantity. Empty and "0x" decode to zero.
func hexToBig(raw string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return new(big.Int), nil
	}

	value, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", raw)
	}
	return value, nil
}

// WeiToTics converts an integer base-unit amount into a decimal token
// amount using the fixed 18-decimal scale.
func WeiToTics(wei *big.Int) decimal.Decimal {
	if wei == nil || wei.Sign() == 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -ticsDecimals)
}

// HexWeiToTics decodes a hex quantity and scales it to a token amount.
func HexWeiToTics(raw string) (decimal.Decimal, error) {
	wei, err := hexToBig(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return WeiToTics(wei), nil
}

// topicAddress extracts the address packed into an indexed log topic: the
// last 20 bytes, lower-cased.
func topicAddress(topic string) string {
	trimmed := strings.TrimPrefix(strings.ToLower(topic), "0x")
	if len(trimmed) < 40 {
		return ""
	}
	return "0x" + trimmed[len(trimmed)-40:]
}
