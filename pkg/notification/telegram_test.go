package notification

import (
	"net/http"
	"net/http/httptest"
	"testing"

	zerologadapter "github.com/raykavin/ticsbot/pkg/logger/zerolog"
	"github.com/raykavin/ticsbot/pkg/wallet"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

func testWalletClient(t *testing.T, handler http.HandlerFunc) *wallet.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	nop := zerolog.Nop()
	client, err := wallet.NewClient(server.URL, zerologadapter.NewAdapter(&nop))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestPortfolioMessageWithoutWalletClient(t *testing.T) {
	// The presale API is optional; the command must degrade, not panic.
	bot := &telegram{}
	assert.Equal(t, "Portfolio lookup is not configured.",
		bot.portfolioMessage("/portfolio 0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B"))
}

func TestPortfolioMessageLookup(t *testing.T) {
	client := testWalletClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total_tokens": 1250.5, "claim_wallet_address": "0xclaim"}`))
	})
	bot := &telegram{wallet: client}

	message := bot.portfolioMessage("/portfolio 0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B")
	assert.Contains(t, message, "1250.5 TICS")
	assert.Contains(t, message, "0xclaim")
}

func TestPortfolioMessageBadInput(t *testing.T) {
	client := testWalletClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	bot := &telegram{wallet: client}

	assert.Contains(t, bot.portfolioMessage("/portfolio"), "Usage")
	assert.Contains(t, bot.portfolioMessage("/portfolio 0x123"), "wallet address")
	assert.Contains(t, bot.portfolioMessage("/portfolio 0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B"),
		"not found")
}

func TestRecipientsIncludeAlertChat(t *testing.T) {
	bot := &telegram{settings: TelegramSettings{
		Users:     []int{10, 20},
		AlertChat: -1001234,
	}}

	recipients := bot.recipients()
	require.Len(t, recipients, 3)
	assert.Equal(t, &tb.User{ID: 10}, recipients[0])
	assert.Equal(t, &tb.User{ID: 20}, recipients[1])
	assert.Equal(t, &tb.Chat{ID: -1001234}, recipients[2])
}

func TestRecipientsAlertChatOnly(t *testing.T) {
	// Empty user list keeps commands public; alerts still have a home.
	bot := &telegram{settings: TelegramSettings{AlertChat: -1001234}}

	recipients := bot.recipients()
	require.Len(t, recipients, 1)
	assert.Equal(t, &tb.Chat{ID: -1001234}, recipients[0])
}
