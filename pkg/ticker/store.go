// Package ticker holds the per-exchange snapshot store and the composite
// quote aggregator.
package ticker

import (
	"sync"

	"github.com/StudioSol/set"
	"github.com/raykavin/ticsbot/pkg/core"
)

// Store is the thread of record for per-exchange ticker snapshots. Each
// entry is written by exactly one connector and read by the aggregator.
// The store is injected into both sides; it is not a package singleton.
type Store struct {
	mu        sync.RWMutex
	order     *set.LinkedHashSetString
	snapshots map[string]core.TickerSnapshot
}

func NewStore() *Store {
	return &Store{
		order:     set.NewLinkedHashSetString(),
		snapshots: make(map[string]core.TickerSnapshot),
	}
}

// Register adds an exchange to the store. Registration order is preserved
// and drives the order of aggregation breakdowns.
func (s *Store) Register(exchange string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Add(exchange)
	if _, ok := s.snapshots[exchange]; !ok {
		s.snapshots[exchange] = core.TickerSnapshot{}
	}
}

// Exchanges returns the registered exchange names in registration order.
func (s *Store) Exchanges() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.order.Length())
	for name := range s.order.Iter() {
		names = append(names, name)
	}
	return names
}

// Get returns the latest snapshot for an exchange.
func (s *Store) Get(exchange string) (core.TickerSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[exchange]
	return snapshot, ok
}

// Set overwrites the snapshot for an exchange.
func (s *Store) Set(exchange string, snapshot core.TickerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[exchange] = snapshot
}

// SetDisconnected marks an exchange's feed unhealthy without clearing the
// stale data already held for it.
func (s *Store) SetDisconnected(exchange string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.snapshots[exchange]
	snapshot.Connected = false
	s.snapshots[exchange] = snapshot
}
