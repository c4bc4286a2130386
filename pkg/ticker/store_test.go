package ticker

import (
	"testing"
	"time"

	"github.com/raykavin/ticsbot/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestStoreRegistrationOrder(t *testing.T) {
	store := NewStore()
	store.Register("binance")
	store.Register("mexc")
	store.Register("lbank")
	store.Register("mexc") // duplicate registration is a no-op

	assert.Equal(t, []string{"binance", "mexc", "lbank"}, store.Exchanges())
}

func TestStoreDisconnectKeepsStaleData(t *testing.T) {
	store := NewStore()
	store.Register("binance")

	now := time.Now()
	store.Set("binance", core.TickerSnapshot{
		Price:     1.25,
		Volume:    1000,
		UpdatedAt: now,
		Connected: true,
	})

	store.SetDisconnected("binance")

	snapshot, ok := store.Get("binance")
	assert.True(t, ok)
	assert.False(t, snapshot.Connected)
	assert.Equal(t, 1.25, snapshot.Price)
	assert.Equal(t, now, snapshot.UpdatedAt)
}

func TestStoreUnknownExchange(t *testing.T) {
	store := NewStore()

	snapshot, ok := store.Get("gate")
	assert.False(t, ok)
	assert.True(t, snapshot.IsZero())
}
