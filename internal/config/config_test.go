package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_USERS", "123, 456")
	t.Setenv("TELEGRAM_ALERT_CHAT", "-1001234")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_WS_URL", "wss://rpc.example.com/ws")
	t.Setenv("TICKER_FRESHNESS", "45s")

	settings, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "token", settings.Telegram.Token)
	assert.Equal(t, []int{123, 456}, settings.Telegram.Users)
	assert.Equal(t, int64(-1001234), settings.Telegram.AlertChat)
	assert.Equal(t, "TICSUSDT", settings.Exchanges.BinancePair)
	assert.Equal(t, "tics_usdt", settings.Exchanges.LBankSymbol)
	assert.Equal(t, 45*time.Second, settings.Ticker.Freshness)
	assert.Equal(t, 5*time.Minute, settings.Presale.CacheTTL)
	assert.Equal(t, 20.0, settings.Chain.MinAmount)
	assert.Equal(t, 100.0, settings.Chain.WhaleThreshold)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_WS_URL", "wss://rpc.example.com/ws")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestLoadWhaleBelowMinimum(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_ALERT_CHAT", "-1001234")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_WS_URL", "wss://rpc.example.com/ws")
	t.Setenv("CHAIN_MIN_AMOUNT", "200")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "CHAIN_WHALE_THRESHOLD")
}

func TestLoadMissingAlertDestination(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_WS_URL", "wss://rpc.example.com/ws")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "TELEGRAM_ALERT_CHAT")
}

func TestLoadInvalidUserList(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_USERS", "123,abc")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_WS_URL", "wss://rpc.example.com/ws")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "TELEGRAM_USERS")
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_WS_URL", "wss://rpc.example.com/ws")
	t.Setenv("TICKER_FRESHNESS", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "TICKER_FRESHNESS")
}
