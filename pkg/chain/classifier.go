package chain

import (
	"context"
	"strings"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/shopspring/decimal"
)

// transferTopic is topic0 of the standard ERC-20 Transfer event.
const transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

var (
	// DefaultMinAmount is the smallest transfer worth reporting.
	DefaultMinAmount = decimal.NewFromInt(20)
	// DefaultWhaleThreshold triggers a whale alert regardless of CEX match.
	DefaultWhaleThreshold = decimal.NewFromInt(100)
)

// Classifier turns raw transactions into transfer events and classifies
// them into CEX deposit/withdrawal and whale alerts. Failures never abort
// sibling transfers; they are logged and the transaction is skipped.
type Classifier struct {
	rpc      *Client
	quoter   core.Quoter
	notifier core.Notifier
	log      logger.Logger

	tokenContract  string
	cexAddresses   map[string]string
	minAmount      decimal.Decimal
	whaleThreshold decimal.Decimal
}

type ClassifierOption func(*Classifier)

// WithMinAmount overrides the minimum reported transfer amount.
func WithMinAmount(min decimal.Decimal) ClassifierOption {
	return func(c *Classifier) {
		c.minAmount = min
	}
}

// WithWhaleThreshold overrides the whale alert threshold.
func WithWhaleThreshold(threshold decimal.Decimal) ClassifierOption {
	return func(c *Classifier) {
		c.whaleThreshold = threshold
	}
}

// WithTokenContract enables receipt-log scanning for the given ERC-20
// contract address.
func WithTokenContract(address string) ClassifierOption {
	return func(c *Classifier) {
		c.tokenContract = strings.ToLower(address)
	}
}

// WithCEXAddresses sets the known exchange deposit addresses, keyed by
// address with the exchange name as value.
func WithCEXAddresses(addresses map[string]string) ClassifierOption {
	return func(c *Classifier) {
		for address, name := range addresses {
			c.cexAddresses[strings.ToLower(address)] = name
		}
	}
}

func NewClassifier(rpc *Client, quoter core.Quoter, notifier core.Notifier, log logger.Logger, options ...ClassifierOption) *Classifier {
	classifier := &Classifier{
		rpc:            rpc,
		quoter:         quoter,
		notifier:       notifier,
		log:            log,
		cexAddresses:   make(map[string]string),
		minAmount:      DefaultMinAmount,
		whaleThreshold: DefaultWhaleThreshold,
	}

	for _, option := range options {
		option(classifier)
	}

	return classifier
}

// ProcessTransaction extracts the value movements of one transaction and
// classifies each of them.
func (c *Classifier) ProcessTransaction(ctx context.Context, tx Transaction) {
	transfers := c.extract(ctx, tx)
	if len(transfers) == 0 {
		return
	}

	price := c.compositePrice(ctx)
	for _, transfer := range transfers {
		c.classify(transfer, price)
	}
}

// extract returns the retained transfers of a transaction: the native value
// movement plus any Transfer logs on the token contract.
func (c *Classifier) extract(ctx context.Context, tx Transaction) []core.TransferEvent {
	transfers := make([]core.TransferEvent, 0, 1)

	amount, err := HexWeiToTics(tx.Value)
	if err != nil {
		c.log.WithError(err).WithField("tx", tx.Hash).Warn("malformed transaction value")
	} else if amount.Sign() > 0 && amount.GreaterThanOrEqual(c.minAmount) {
		transfers = append(transfers, core.TransferEvent{
			From:   strings.ToLower(tx.From),
			To:     strings.ToLower(tx.To),
			Amount: amount,
			Kind:   core.TransferNative,
			TxHash: tx.Hash,
		})
	}

	if c.tokenContract != "" && (strings.ToLower(tx.To) == c.tokenContract || contractCall(tx)) {
		transfers = append(transfers, c.extractTokenTransfers(ctx, tx)...)
	}

	return transfers
}

// contractCall reports whether the transaction carries calldata. A plain
// value transfer has none and cannot emit token logs, so its receipt is
// never fetched. Calls to routers or other contracts can still move the
// token; their receipts are scanned too.
func contractCall(tx Transaction) bool {
	return tx.Input != "" && tx.Input != "0x"
}

func (c *Classifier) extractTokenTransfers(ctx context.Context, tx Transaction) []core.TransferEvent {
	receipt, err := c.rpc.TransactionReceipt(ctx, tx.Hash)
	if err != nil {
		c.log.WithError(err).WithField("tx", tx.Hash).Warn("receipt fetch failed")
		return nil
	}

	transfers := make([]core.TransferEvent, 0, len(receipt.Logs))
	for _, eventLog := range receipt.Logs {
		transfer, ok := c.transferFromLog(eventLog, tx.Hash)
		if !ok {
			continue
		}
		transfers = append(transfers, transfer)
	}
	return transfers
}

// transferFromLog decodes one receipt log into a transfer event. Logs of
// other contracts, other events, or below the minimum amount return false.
func (c *Classifier) transferFromLog(eventLog Log, txHash string) (core.TransferEvent, bool) {
	if strings.ToLower(eventLog.Address) != c.tokenContract {
		return core.TransferEvent{}, false
	}
	if len(eventLog.Topics) < 3 || strings.ToLower(eventLog.Topics[0]) != transferTopic {
		return core.TransferEvent{}, false
	}

	amount, err := HexWeiToTics(eventLog.Data)
	if err != nil {
		c.log.WithError(err).WithField("tx", txHash).Warn("malformed transfer log data")
		return core.TransferEvent{}, false
	}
	if amount.Sign() <= 0 || amount.LessThan(c.minAmount) {
		return core.TransferEvent{}, false
	}

	return core.TransferEvent{
		From:   topicAddress(eventLog.Topics[1]),
		To:     topicAddress(eventLog.Topics[2]),
		Amount: amount,
		Kind:   core.TransferToken,
		TxHash: txHash,
	}, true
}

// compositePrice asks the aggregator for the current composite price. When
// no data is available the price degrades to zero and alerts show $0.00.
func (c *Classifier) compositePrice(ctx context.Context) decimal.Decimal {
	quote, err := c.quoter.Composite(ctx)
	if err != nil {
		c.log.WithError(err).Debug("composite price unavailable, using zero")
		return decimal.Zero
	}
	return decimal.NewFromFloat(quote.Price)
}

// classify emits the alerts a transfer qualifies for. CEX matching stops at
// the first hit (destination wins over source); the whale check is
// independent of any CEX match.
func (c *Classifier) classify(transfer core.TransferEvent, price decimal.Decimal) {
	usdValue := transfer.Amount.Mul(price)

	if exchange, ok := c.cexAddresses[transfer.To]; ok {
		c.emit(core.Alert{
			Kind:     core.AlertDeposit,
			Exchange: exchange,
			From:     transfer.From,
			To:       transfer.To,
			Amount:   transfer.Amount,
			USDValue: usdValue,
			TxHash:   transfer.TxHash,
		})
	} else if exchange, ok := c.cexAddresses[transfer.From]; ok {
		c.emit(core.Alert{
			Kind:     core.AlertWithdrawal,
			Exchange: exchange,
			From:     transfer.From,
			To:       transfer.To,
			Amount:   transfer.Amount,
			USDValue: usdValue,
			TxHash:   transfer.TxHash,
		})
	}

	if transfer.Amount.GreaterThanOrEqual(c.whaleThreshold) {
		c.emit(core.Alert{
			Kind:     core.AlertWhale,
			From:     transfer.From,
			To:       transfer.To,
			Amount:   transfer.Amount,
			USDValue: usdValue,
			TxHash:   transfer.TxHash,
		})
	}
}

func (c *Classifier) emit(alert core.Alert) {
	c.notifier.OnAlert(alert)
}
