package engine

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/balances/internal/domain"
)

// evictionSet is a capacity-bounded LRU set of tx ids whose ledger entries may be reclaimed.
// Disputed transactions are never members.
type evictionSet struct {
	lru      *simplelru.LRU[domain.TxID, struct{}]
	capacity int
}

func newEvictionSet(capacity int) (*evictionSet, error) {
	if capacity < 1 {
		return nil, errors.Errorf("tx cache size must be positive, got %d", capacity)
	}

	// no eviction callback: Remove would fire it too, and only overflow must drop ledger entries
	lru, err := simplelru.NewLRU[domain.TxID, struct{}](capacity, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create tx lru")
	}

	return &evictionSet{lru: lru, capacity: capacity}, nil
}

// insert marks id as most recently used. When that pushes the set over capacity
// the least recently used id is dropped and returned.
func (s *evictionSet) insert(id domain.TxID) (evicted domain.TxID, ok bool) {
	if !s.lru.Contains(id) && s.lru.Len() >= s.capacity {
		evicted, _, ok = s.lru.RemoveOldest()
	}
	s.lru.Add(id, struct{}{})

	return evicted, ok
}

// remove drops id from the set and reports whether it was present.
func (s *evictionSet) remove(id domain.TxID) bool {
	return s.lru.Remove(id)
}

func (s *evictionSet) len() int {
	return s.lru.Len()
}
