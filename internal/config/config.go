// Package config handles application configuration management using Viper
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// DefaultConfigPath is tried when no config file is given explicitly.
const DefaultConfigPath = "./ticsbot.yaml"

// Settings holds the full application configuration.
type Settings struct {
	Telegram  TelegramConfig
	Exchanges ExchangesConfig
	Chain     ChainConfig
	Presale   PresaleConfig
	Ticker    TickerConfig
}

// TelegramConfig holds the bot token, the authorized user IDs and the chat
// that receives alerts. An empty user list leaves commands public, so the
// alert chat is required in that case.
type TelegramConfig struct {
	Token     string
	Users     []int
	AlertChat int64
}

// ExchangesConfig holds the per-exchange pair symbols.
type ExchangesConfig struct {
	BinancePair  string
	MEXCSymbol   string
	LBankSymbol  string
	PollInterval time.Duration
}

// ChainConfig holds the EVM endpoints and the transfer classification rules.
type ChainConfig struct {
	RPCURL         string
	WSURL          string
	TokenContract  string
	CEXAddresses   map[string]string
	MinAmount      float64
	WhaleThreshold float64
}

// PresaleConfig holds the presale wallet API settings.
type PresaleConfig struct {
	APIURL   string
	CacheTTL time.Duration
}

// TickerConfig holds composite quote tuning.
type TickerConfig struct {
	Freshness time.Duration
}

// Load builds the settings from environment variables, with an optional YAML
// file underneath. Environment variables take precedence.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	v.AutomaticEnv()

	setDefaults(v)

	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	pollInterval, err := parseDuration(v, "EXCHANGES_POLL_INTERVAL")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration(v, "PRESALE_CACHE_TTL")
	if err != nil {
		return nil, err
	}
	freshness, err := parseDuration(v, "TICKER_FRESHNESS")
	if err != nil {
		return nil, err
	}
	users, err := parseIntList(v, "TELEGRAM_USERS")
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		Telegram: TelegramConfig{
			Token:     v.GetString("TELEGRAM_TOKEN"),
			Users:     users,
			AlertChat: v.GetInt64("TELEGRAM_ALERT_CHAT"),
		},
		Exchanges: ExchangesConfig{
			BinancePair:  v.GetString("BINANCE_PAIR"),
			MEXCSymbol:   v.GetString("MEXC_SYMBOL"),
			LBankSymbol:  v.GetString("LBANK_SYMBOL"),
			PollInterval: pollInterval,
		},
		Chain: ChainConfig{
			RPCURL:         v.GetString("CHAIN_RPC_URL"),
			WSURL:          v.GetString("CHAIN_WS_URL"),
			TokenContract:  v.GetString("CHAIN_TOKEN_CONTRACT"),
			CEXAddresses:   v.GetStringMapString("CHAIN_CEX_ADDRESSES"),
			MinAmount:      v.GetFloat64("CHAIN_MIN_AMOUNT"),
			WhaleThreshold: v.GetFloat64("CHAIN_WHALE_THRESHOLD"),
		},
		Presale: PresaleConfig{
			APIURL:   v.GetString("PRESALE_API_URL"),
			CacheTTL: cacheTTL,
		},
		Ticker: TickerConfig{
			Freshness: freshness,
		},
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BINANCE_PAIR", "TICSUSDT")
	v.SetDefault("MEXC_SYMBOL", "TICSUSDT")
	v.SetDefault("LBANK_SYMBOL", "tics_usdt")
	v.SetDefault("EXCHANGES_POLL_INTERVAL", "15s")
	v.SetDefault("PRESALE_CACHE_TTL", "5m")
	v.SetDefault("TICKER_FRESHNESS", "30s")
	v.SetDefault("CHAIN_MIN_AMOUNT", 20.0)
	v.SetDefault("CHAIN_WHALE_THRESHOLD", 100.0)
}

func (s *Settings) validate() error {
	if s.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if len(s.Telegram.Users) == 0 && s.Telegram.AlertChat == 0 {
		return fmt.Errorf("TELEGRAM_USERS or TELEGRAM_ALERT_CHAT is required, alerts need a destination")
	}
	if s.Chain.RPCURL == "" || s.Chain.WSURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL and CHAIN_WS_URL are required")
	}
	if s.Chain.WhaleThreshold < s.Chain.MinAmount {
		return fmt.Errorf("CHAIN_WHALE_THRESHOLD must not be below CHAIN_MIN_AMOUNT")
	}
	return nil
}

// parseDuration accepts extended duration strings such as "1d12h".
func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := v.GetString(key)
	duration, err := str2duration.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return duration, nil
}

// parseIntList accepts a comma-separated string, the only form an
// environment variable can carry, and falls back to a native list for
// values coming from the config file.
func parseIntList(v *viper.Viper, key string) ([]int, error) {
	raw := v.GetString(key)
	if raw == "" {
		return v.GetIntSlice(key), nil
	}

	var values []int
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, field, err)
		}
		values = append(values, value)
	}
	return values, nil
}
