package engine

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/vadiminshakov/balances/internal/domain"
)

// ledger tracks the lifecycle of every referenceable transaction.
// Entries in state deposited or withdrawn are members of the eviction set and may be
// reclaimed under capacity pressure; disputed entries stay until resolved or charged back.
type ledger struct {
	entries   map[domain.TxID]txState
	evictable *evictionSet
	// seen remembers every accepted deposit and withdrawal id, including reclaimed ones.
	// Its size follows the number of ids, not their magnitude.
	seen *roaring.Bitmap
}

func newLedger(capacity int) (*ledger, error) {
	evictable, err := newEvictionSet(capacity)
	if err != nil {
		return nil, err
	}

	return &ledger{
		entries:   make(map[domain.TxID]txState),
		evictable: evictable,
		seen:      roaring.New(),
	}, nil
}

// known reports whether id was ever recorded, even if its entry is gone.
func (l *ledger) known(id domain.TxID) bool {
	return l.seen.Contains(uint32(id))
}

func (l *ledger) get(id domain.TxID) (txState, bool) {
	st, ok := l.entries[id]
	return st, ok
}

func (l *ledger) len() int {
	return len(l.entries)
}

// record stores a new deposit or withdrawal. It returns the id reclaimed to make room, if any.
func (l *ledger) record(id domain.TxID, st txState) (domain.TxID, bool) {
	l.entries[id] = st
	l.seen.Add(uint32(id))

	return l.makeEvictable(id)
}

// dispute moves a deposited entry under dispute and shields it from eviction.
func (l *ledger) dispute(id domain.TxID, st disputed) {
	if !l.evictable.remove(id) {
		panic(fmt.Sprintf("invariant violated: disputed %s was not evictable", id))
	}
	l.entries[id] = st
}

// resolve returns a disputed entry to deposited. It returns the id reclaimed to make room, if any.
func (l *ledger) resolve(id domain.TxID, st deposited) (domain.TxID, bool) {
	l.entries[id] = st

	return l.makeEvictable(id)
}

// chargeback forgets a disputed entry for good.
func (l *ledger) chargeback(id domain.TxID) {
	delete(l.entries, id)
}

func (l *ledger) makeEvictable(id domain.TxID) (domain.TxID, bool) {
	evicted, ok := l.evictable.insert(id)
	if !ok {
		return 0, false
	}

	switch st := l.entries[evicted].(type) {
	case deposited, withdrawn:
		delete(l.entries, evicted)
	default:
		panic(fmt.Sprintf("invariant violated: evicting %s in state %v", evicted, st))
	}

	return evicted, true
}
