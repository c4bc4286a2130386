package chain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	zerologadapter "github.com/raykavin/ticsbot/pkg/logger/zerolog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	nop := zerolog.Nop()
	return zerologadapter.NewAdapter(&nop)
}

type fakeQuoter struct {
	price float64
	err   error
}

func (f *fakeQuoter) Composite(context.Context) (core.CompositeQuote, error) {
	if f.err != nil {
		return core.CompositeQuote{}, f.err
	}
	return core.CompositeQuote{Price: f.price}, nil
}

type fakeNotifier struct {
	alerts []core.Alert
}

func (f *fakeNotifier) Notify(string)            {}
func (f *fakeNotifier) OnError(error)            {}
func (f *fakeNotifier) OnAlert(alert core.Alert) { f.alerts = append(f.alerts, alert) }

// 0x15af1d78b58c40000 = 25e18, 0x8ac7230489e80000 = 10e18,
// 0x1158e460913d00000 = 20e18, 0x1158e460913cfffff = 19.999999999999999999e18,
// 0x821ab0d4414980000 = 150e18.
const (
	hex25          = "0x15af1d78b58c40000"
	hex10          = "0x8ac7230489e80000"
	hex20          = "0x1158e460913d00000"
	hexJustBelow20 = "0x1158e460913cfffff"
	hex150         = "0x821ab0d4414980000"
)

func newTestClassifier(notifier *fakeNotifier, quoter core.Quoter, options ...ClassifierOption) *Classifier {
	return NewClassifier(nil, quoter, notifier, testLogger(), options...)
}

func TestNativeTransferBelowMinimumDiscarded(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0},
		WithWhaleThreshold(decimal.NewFromInt(20)))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: hexJustBelow20,
	})

	assert.Empty(t, notifier.alerts)
}

func TestNativeTransferAtMinimumEmitted(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0},
		WithWhaleThreshold(decimal.NewFromInt(20)))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: hex20,
	})

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, core.AlertWhale, notifier.alerts[0].Kind)
	assert.Equal(t, "20", notifier.alerts[0].Amount.String())
}

func TestZeroValueTransactionIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0})

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: "0x0",
	})

	assert.Empty(t, notifier.alerts)
}

func TestCEXDepositCaseInsensitive(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 2.0},
		WithCEXAddresses(map[string]string{"0xDEPOSITDEADBEEF": "MEXC"}))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xdepositDeadBeef", Value: hex25,
	})

	require.Len(t, notifier.alerts, 1)
	alert := notifier.alerts[0]
	assert.Equal(t, core.AlertDeposit, alert.Kind)
	assert.Equal(t, "MEXC", alert.Exchange)
	assert.Equal(t, "25", alert.Amount.String())
	assert.Equal(t, "50", alert.USDValue.String())
}

func TestCEXWithdrawal(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0},
		WithCEXAddresses(map[string]string{"0xcexhotwallet": "LBank"}))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xCEXHOTWALLET", To: "0xuser", Value: hex25,
	})

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, core.AlertWithdrawal, notifier.alerts[0].Kind)
	assert.Equal(t, "LBank", notifier.alerts[0].Exchange)
}

func TestDepositWinsOverWithdrawal(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0},
		WithCEXAddresses(map[string]string{
			"0xsource": "Binance",
			"0xdest":   "MEXC",
		}))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xsource", To: "0xdest", Value: hex25,
	})

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, core.AlertDeposit, notifier.alerts[0].Kind)
	assert.Equal(t, "MEXC", notifier.alerts[0].Exchange)
}

func TestWhaleAndCEXAreIndependent(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0},
		WithCEXAddresses(map[string]string{"0xdest": "MEXC"}))

	// 150 to a non-CEX address: whale only.
	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: hex150,
	})
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, core.AlertWhale, notifier.alerts[0].Kind)

	// 150 to a CEX address: deposit and whale.
	notifier.alerts = nil
	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x2", From: "0xaa", To: "0xdest", Value: hex150,
	})
	require.Len(t, notifier.alerts, 2)
	assert.Equal(t, core.AlertDeposit, notifier.alerts[0].Kind)
	assert.Equal(t, core.AlertWhale, notifier.alerts[1].Kind)
}

func TestUnavailablePriceDefaultsUSDToZero(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{err: errors.New("no data")})

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: hex150,
	})

	require.Len(t, notifier.alerts, 1)
	assert.True(t, notifier.alerts[0].USDValue.IsZero())
}

func TestMalformedValueSkipsTransaction(t *testing.T) {
	notifier := &fakeNotifier{}
	classifier := newTestClassifier(notifier, &fakeQuoter{price: 1.0})

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: "0xnothex",
	})

	assert.Empty(t, notifier.alerts)
}

func TestTokenTransferFromReceiptLogs(t *testing.T) {
	const token = "0x1ce5c3a6cc918c5a3bfa3eba84b6d20c1f484d39"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"jsonrpc": "2.0",
			"id": 1,
			"result": {
				"transactionHash": "0x1",
				"logs": [
					{
						"address": "` + token + `",
						"topics": [
							"` + transferTopic + `",
							"0x000000000000000000000000AB5801a7D398351b8bE11C439e05C5B3259aeC9B",
							"0x0000000000000000000000004E9ce36E442e55EcD9025B9a6E0D88485d628A67"
						],
						"data": "` + hex150 + `"
					},
					{
						"address": "0xothercontract",
						"topics": ["` + transferTopic + `"],
						"data": "0x01"
					}
				]
			}
		}`))
	}))
	defer server.Close()

	notifier := &fakeNotifier{}
	classifier := NewClassifier(NewClient(server.URL), &fakeQuoter{price: 1.0}, notifier, testLogger(),
		WithTokenContract(token),
		WithCEXAddresses(map[string]string{"0x4E9ce36E442e55EcD9025B9a6E0D88485d628A67": "Binance"}))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xsender", To: token, Value: "0x0",
	})

	require.Len(t, notifier.alerts, 2)
	deposit := notifier.alerts[0]
	assert.Equal(t, core.AlertDeposit, deposit.Kind)
	assert.Equal(t, "Binance", deposit.Exchange)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", deposit.From)
	assert.Equal(t, "150", deposit.Amount.String())
	assert.Equal(t, core.AlertWhale, notifier.alerts[1].Kind)
}

func TestTokenTransferThroughOtherContract(t *testing.T) {
	const token = "0x1ce5c3a6cc918c5a3bfa3eba84b6d20c1f484d39"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"jsonrpc": "2.0",
			"id": 1,
			"result": {
				"transactionHash": "0x1",
				"logs": [
					{
						"address": "` + token + `",
						"topics": [
							"` + transferTopic + `",
							"0x000000000000000000000000AB5801a7D398351b8bE11C439e05C5B3259aeC9B",
							"0x0000000000000000000000004E9ce36E442e55EcD9025B9a6E0D88485d628A67"
						],
						"data": "` + hex150 + `"
					}
				]
			}
		}`))
	}))
	defer server.Close()

	notifier := &fakeNotifier{}
	classifier := NewClassifier(NewClient(server.URL), &fakeQuoter{price: 1.0}, notifier, testLogger(),
		WithTokenContract(token))

	// A swap through a router still emits a token Transfer log even though
	// the transaction does not target the token contract.
	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xsender", To: "0xrouter", Value: "0x0",
		Input: "0x38ed1739",
	})

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, core.AlertWhale, notifier.alerts[0].Kind)
	assert.Equal(t, "150", notifier.alerts[0].Amount.String())
}

func TestPlainValueTransferSkipsReceiptFetch(t *testing.T) {
	var receiptCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		receiptCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := &fakeNotifier{}
	classifier := NewClassifier(NewClient(server.URL), &fakeQuoter{price: 1.0}, notifier, testLogger(),
		WithTokenContract("0xtoken"))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: "0xbb", Value: hex25, Input: "0x",
	})

	require.Len(t, notifier.alerts, 0)
	assert.Equal(t, 0, receiptCalls)
}

func TestReceiptFetchFailureSkipsTransactionOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	const token = "0xtoken"
	notifier := &fakeNotifier{}
	classifier := NewClassifier(NewClient(server.URL), &fakeQuoter{price: 1.0}, notifier, testLogger(),
		WithTokenContract(token))

	classifier.ProcessTransaction(context.Background(), Transaction{
		Hash: "0x1", From: "0xaa", To: token, Value: "0x0",
	})

	assert.Empty(t, notifier.alerts)
}
