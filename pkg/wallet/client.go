// Package wallet looks up presale portfolios by wallet address.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/tidwall/buntdb"
)

var addressRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// DefaultCacheTTL bounds how long a looked-up portfolio is served from
// cache before the presale API is asked again.
const DefaultCacheTTL = 5 * time.Minute

// Portfolio is the presale API response for one wallet.
type Portfolio struct {
	TotalTokens        decimal.Decimal `json:"total_tokens"`
	ClaimWalletAddress string          `json:"claim_wallet_address"`
}

// Client queries the presale API with an in-memory TTL cache in front.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *buntdb.DB
	ttl     time.Duration
	log     logger.Logger
}

type Option func(*Client)

// WithCacheTTL overrides the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.ttl = ttl
	}
}

// WithHTTPClient overrides the HTTP client, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func NewClient(baseURL string, log logger.Logger, options ...Option) (*Client, error) {
	cache, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet cache: %w", err)
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		ttl:     DefaultCacheTTL,
		log:     log,
	}

	for _, option := range options {
		option(client)
	}

	return client, nil
}

// Portfolio returns the presale holdings of a wallet address.
func (c *Client) Portfolio(ctx context.Context, address string) (Portfolio, error) {
	if !addressRegexp.MatchString(address) {
		return Portfolio{}, core.ErrInvalidAddress
	}

	key := strings.ToLower(address)
	if portfolio, ok := c.cached(key); ok {
		return portfolio, nil
	}

	portfolio, raw, err := c.fetch(ctx, key)
	if err != nil {
		return Portfolio{}, err
	}

	c.store(key, raw)
	return portfolio, nil
}

func (c *Client) cached(key string) (Portfolio, bool) {
	var raw string
	err := c.cache.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = value
		return nil
	})
	if err != nil {
		return Portfolio{}, false
	}

	var portfolio Portfolio
	if err := json.Unmarshal([]byte(raw), &portfolio); err != nil {
		return Portfolio{}, false
	}
	return portfolio, true
}

func (c *Client) store(key string, raw []byte) {
	err := c.cache.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(raw), &buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
	if err != nil {
		c.log.WithError(err).Warn("failed to cache portfolio")
	}
}

func (c *Client) fetch(ctx context.Context, address string) (Portfolio, []byte, error) {
	url := fmt.Sprintf("%s/wallet/%s", c.baseURL, address)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Portfolio{}, nil, err
	}

	response, err := c.client.Do(request)
	if err != nil {
		return Portfolio{}, nil, fmt.Errorf("presale lookup: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return Portfolio{}, nil, core.ErrWalletNotFound
	}
	if response.StatusCode != http.StatusOK {
		return Portfolio{}, nil, fmt.Errorf("presale lookup: status %d", response.StatusCode)
	}

	var portfolio Portfolio
	raw := json.RawMessage{}
	if err := json.NewDecoder(response.Body).Decode(&raw); err != nil {
		return Portfolio{}, nil, fmt.Errorf("presale lookup: %w", err)
	}
	if err := json.Unmarshal(raw, &portfolio); err != nil {
		return Portfolio{}, nil, fmt.Errorf("presale lookup: %w", err)
	}

	return portfolio, raw, nil
}

// Close releases the cache.
func (c *Client) Close() error {
	return c.cache.Close()
}
