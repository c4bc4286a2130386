package notification

import (
	"testing"
	"time"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatQuoteMessage(t *testing.T) {
	quote := core.CompositeQuote{
		Price:     1.0150,
		High:      1.10,
		Low:       0.95,
		Volume:    150000,
		Source:    core.SourceCombined,
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	message := formatQuoteMessage(quote)
	assert.Contains(t, message, "$1.0150")
	assert.Contains(t, message, "150000 TICS")
	assert.NotContains(t, message, "Only one exchange")

	quote.Source = "binance"
	assert.Contains(t, formatQuoteMessage(quote), "Only one exchange")
}

func TestFormatAlertMessage(t *testing.T) {
	alert := core.Alert{
		Kind:     core.AlertDeposit,
		Exchange: "mexc",
		From:     "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		To:       "0x4e9ce36e442e55ecd9025b9a6e0d88485d628a67",
		Amount:   decimal.NewFromInt(150),
		USDValue: decimal.NewFromFloat(152.25),
		TxHash:   "0xdeadbeef",
	}

	message := formatAlertMessage(alert)
	assert.Contains(t, message, "MEXC DEPOSIT")
	assert.Contains(t, message, "150 TICS")
	assert.Contains(t, message, "$152.25")
	// Long addresses are truncated for display.
	assert.Contains(t, message, "0xab5801…ec9b")

	alert.Kind = core.AlertWhale
	assert.Contains(t, formatAlertMessage(alert), "WHALE TRANSFER")
}
