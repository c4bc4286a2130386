package ticker

import (
	"context"
	"time"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/raykavin/ticsbot/pkg/logger"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultFreshness is how old a live snapshot may be before the
	// aggregator tries the exchange's REST fallback instead.
	DefaultFreshness = 30 * time.Second

	fallbackTimeout = 10 * time.Second
)

// Aggregator computes a volume-weighted composite quote from the store,
// falling back to one-shot REST fetches for stale or disconnected feeds.
type Aggregator struct {
	store     *Store
	fallbacks map[string]core.TickerFetcher
	freshness time.Duration
	log       logger.Logger
}

type AggregatorOption func(*Aggregator)

// WithFreshness overrides the snapshot freshness threshold.
func WithFreshness(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.freshness = d
	}
}

// WithFallback registers a REST fallback for an exchange.
func WithFallback(exchange string, fetcher core.TickerFetcher) AggregatorOption {
	return func(a *Aggregator) {
		a.fallbacks[exchange] = fetcher
	}
}

func NewAggregator(store *Store, log logger.Logger, options ...AggregatorOption) *Aggregator {
	aggregator := &Aggregator{
		store:     store,
		fallbacks: make(map[string]core.TickerFetcher),
		freshness: DefaultFreshness,
		log:       log,
	}

	for _, option := range options {
		option(aggregator)
	}

	return aggregator
}

// contribution is one exchange's usable snapshot at aggregation time.
type contribution struct {
	exchange string
	snapshot core.TickerSnapshot
}

// Composite implements core.Quoter.
func (a *Aggregator) Composite(ctx context.Context) (core.CompositeQuote, error) {
	contributions := a.collect(ctx)
	if len(contributions) == 0 {
		return core.CompositeQuote{}, core.ErrNoTickerData
	}

	if len(contributions) == 1 {
		return singleQuote(contributions[0]), nil
	}

	return a.combine(contributions), nil
}

// collect gathers usable snapshots, trying REST fallbacks for exchanges
// whose push feed is down or stale.
func (a *Aggregator) collect(ctx context.Context) []contribution {
	contributions := make([]contribution, 0, len(a.store.Exchanges()))

	for _, exchange := range a.store.Exchanges() {
		snapshot, ok := a.store.Get(exchange)
		if ok && a.usable(snapshot) {
			contributions = append(contributions, contribution{exchange: exchange, snapshot: snapshot})
			continue
		}

		fallback, ok := a.fallbacks[exchange]
		if !ok {
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, fallbackTimeout)
		fetched, err := fallback.FetchTicker(fetchCtx)
		cancel()
		if err != nil {
			a.log.WithError(err).WithField("exchange", exchange).Warn("ticker fallback failed")
			continue
		}
		if fetched.Price <= 0 {
			continue
		}

		// Fallback data is never considered live.
		fetched.Connected = false
		contributions = append(contributions, contribution{exchange: exchange, snapshot: fetched})
	}

	return contributions
}

// HasFallback reports whether a REST fallback is wired for the exchange.
func (a *Aggregator) HasFallback(exchange string) bool {
	_, ok := a.fallbacks[exchange]
	return ok
}

func (a *Aggregator) usable(snapshot core.TickerSnapshot) bool {
	return snapshot.Price > 0 && snapshot.Connected && snapshot.Age() < a.freshness
}

// singleQuote degenerates the composite to one exchange's raw values.
func singleQuote(c contribution) core.CompositeQuote {
	return core.CompositeQuote{
		Price:     c.snapshot.Price,
		Volume:    c.snapshot.Volume,
		High:      c.snapshot.High,
		Low:       c.snapshot.Low,
		UpdatedAt: c.snapshot.UpdatedAt,
		Source:    c.exchange,
		Breakdown: []core.ExchangeQuote{{
			Exchange: c.exchange,
			Price:    c.snapshot.Price,
			Volume:   c.snapshot.Volume,
			Live:     c.snapshot.Connected,
		}},
	}
}

func (a *Aggregator) combine(contributions []contribution) core.CompositeQuote {
	totalVolume := lo.SumBy(contributions, func(c contribution) float64 {
		return c.snapshot.Volume
	})

	// Volume-weighted mean; an exchange reporting zero volume still counts
	// for high/low but adds no weight to the price.
	price := contributions[0].snapshot.Price
	if totalVolume > 0 {
		weighted := lo.SumBy(contributions, func(c contribution) float64 {
			return c.snapshot.Price * c.snapshot.Volume
		})
		price = weighted / totalVolume
	}

	highs := make([]float64, len(contributions))
	lows := make([]float64, len(contributions))
	breakdown := make([]core.ExchangeQuote, len(contributions))
	for i, c := range contributions {
		highs[i] = boundOrPrice(c.snapshot.High, c.snapshot.Price)
		lows[i] = boundOrPrice(c.snapshot.Low, c.snapshot.Price)
		breakdown[i] = core.ExchangeQuote{
			Exchange: c.exchange,
			Price:    c.snapshot.Price,
			Volume:   c.snapshot.Volume,
			Live:     c.snapshot.Connected,
		}
	}

	latest := lo.MaxBy(contributions, func(a, b contribution) bool {
		return a.snapshot.UpdatedAt.After(b.snapshot.UpdatedAt)
	})

	return core.CompositeQuote{
		Price:     price,
		Volume:    totalVolume,
		High:      stat.Mean(highs, nil),
		Low:       stat.Mean(lows, nil),
		UpdatedAt: latest.snapshot.UpdatedAt,
		Source:    core.SourceCombined,
		Breakdown: breakdown,
	}
}

// boundOrPrice substitutes the trade price for an unreported high/low bound
// so the mean never sees a zero placeholder.
func boundOrPrice(bound, price float64) float64 {
	if bound <= 0 {
		return price
	}
	return bound
}
