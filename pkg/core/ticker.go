package core

import "time"

// TickerSnapshot is the latest known ticker for one exchange. A snapshot with
// Price == 0 has never been filled. Stale data is kept in place on failure;
// only Connected flips to false.
type TickerSnapshot struct {
	Price     float64
	Volume    float64
	High      float64
	Low       float64
	UpdatedAt time.Time
	Connected bool
}

// IsZero reports whether the snapshot has never been filled.
func (s TickerSnapshot) IsZero() bool { return s.Price == 0 }

// Age returns how long ago the snapshot was captured.
func (s TickerSnapshot) Age() time.Duration { return time.Since(s.UpdatedAt) }

// ExchangeQuote keeps one exchange's raw contribution to a composite quote
// for display purposes.
type ExchangeQuote struct {
	Exchange string
	Price    float64
	Volume   float64
	Live     bool
}

// CompositeQuote is a volume-weighted combination of the usable exchange
// tickers. It is recomputed per request and never stored.
type CompositeQuote struct {
	Price     float64
	Volume    float64
	High      float64
	Low       float64
	UpdatedAt time.Time
	Source    string
	Breakdown []ExchangeQuote
}

// SourceCombined is the Source label used when two or more exchanges
// contribute to a composite quote.
const SourceCombined = "combined"
