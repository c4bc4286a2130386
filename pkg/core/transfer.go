package core

import "github.com/shopspring/decimal"

// TransferKind distinguishes native-currency movements from ERC-20 log events.
type TransferKind string

const (
	TransferNative TransferKind = "native"
	TransferToken  TransferKind = "token"
)

// TransferEvent is one detected value movement inside a transaction.
// Addresses are lower-cased on construction so classification compares are
// case-insensitive.
type TransferEvent struct {
	From   string
	To     string
	Amount decimal.Decimal
	Kind   TransferKind
	TxHash string
}

// AlertKind classifies an emitted alert.
type AlertKind string

const (
	AlertDeposit    AlertKind = "deposit"
	AlertWithdrawal AlertKind = "withdrawal"
	AlertWhale      AlertKind = "whale"
)

// Alert is the payload handed to the alert dispatcher. Delivery is
// best-effort; failures stay inside the dispatcher.
type Alert struct {
	Kind     AlertKind
	Exchange string
	From     string
	To       string
	Amount   decimal.Decimal
	USDValue decimal.Decimal
	TxHash   string
}
