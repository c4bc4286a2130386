package core

import "errors"

var (
	// ErrNoTickerData is returned by the aggregator when no exchange has a
	// usable snapshot, including after REST fallbacks.
	ErrNoTickerData = errors.New("no ticker data available")

	// ErrWalletNotFound is returned by the presale lookup for an address
	// unknown to the presale API.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidAddress is returned for inputs that are not 0x-prefixed
	// 40-digit hex addresses.
	ErrInvalidAddress = errors.New("invalid wallet address")
)
