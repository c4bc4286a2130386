// Package exchange contains the per-exchange ticker connectors feeding the
// shared snapshot store.
package exchange

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/ticsbot/pkg/logger"

	"context"
)

// ReconnectDelay is the fixed wait between feed restarts. Retries are
// unbounded; only context cancellation stops a connector.
const ReconnectDelay = 5 * time.Second

var errNonPositivePrice = errors.New("non-positive price")

// Supervise runs fn in a loop, waiting ReconnectDelay after every return.
// fn owns one feed session: a websocket connection or a polling pass.
func Supervise(ctx context.Context, log logger.Logger, name string, fn func(context.Context) error) {
	retry := &backoff.Backoff{Min: ReconnectDelay, Max: ReconnectDelay}

	for {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("exchange", name).Warn("feed stopped, scheduling reconnect")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry.Duration()):
		}
	}
}

// parsePositive parses a price field, rejecting malformed, non-finite and
// non-positive values.
func parsePositive(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, fmt.Errorf("%w: %q", errNonPositivePrice, raw)
	}
	return value, nil
}

// parseLenient parses secondary numeric fields (volume, high, low). A bad
// value degrades to zero instead of invalidating the whole message.
func parseLenient(raw string) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}
