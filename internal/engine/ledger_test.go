package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/balances/internal/domain"
)

func nn(t *testing.T, s string) domain.NonNegativeAmount {
	t.Helper()
	a, err := domain.NewNonNegativeAmount(domain.MustParseAmount(s))
	require.NoError(t, err)

	return a
}

func TestBalance_Derived(t *testing.T) {
	tests := []struct {
		name      string
		b         balance
		available string
		held      string
		total     string
		locked    bool
		prunable  bool
	}{
		{
			name:      "empty",
			b:         balance{},
			available: "0.0000", held: "0.0000", total: "0.0000",
			prunable: true,
		},
		{
			name:      "deposit and partial withdrawal",
			b:         balance{deposited: nn(t, "3"), withdrawn: nn(t, "1")},
			available: "2.0000", held: "0.0000", total: "2.0000",
		},
		{
			name:      "open dispute",
			b:         balance{deposited: nn(t, "3"), disputed: nn(t, "2")},
			available: "1.0000", held: "2.0000", total: "3.0000",
		},
		{
			name:      "resolved dispute",
			b:         balance{deposited: nn(t, "3"), disputed: nn(t, "2"), resolved: nn(t, "2")},
			available: "3.0000", held: "0.0000", total: "3.0000",
		},
		{
			name:      "charged back",
			b:         balance{deposited: nn(t, "3"), disputed: nn(t, "2"), chargedback: nn(t, "2")},
			available: "1.0000", held: "0.0000", total: "1.0000",
			locked: true,
		},
		{
			name:      "charged back to zero stays",
			b:         balance{deposited: nn(t, "2"), disputed: nn(t, "2"), chargedback: nn(t, "2")},
			available: "0.0000", held: "0.0000", total: "0.0000",
			locked: true,
		},
		{
			name:      "disputed after withdrawal",
			b:         balance{deposited: nn(t, "1"), withdrawn: nn(t, "1"), disputed: nn(t, "1")},
			available: "-1.0000", held: "1.0000", total: "0.0000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.available, tt.b.available().String())
			assert.Equal(t, tt.held, tt.b.held().String())
			assert.Equal(t, tt.total, tt.b.total().String())
			assert.Equal(t, tt.locked, tt.b.locked())
			assert.Equal(t, tt.prunable, tt.b.canBePruned())

			acc := tt.b.snapshot(5)
			assert.Equal(t, domain.ClientID(5), acc.Client)
			assert.Equal(t, tt.b.total(), acc.Available+acc.Held.Amount())
		})
	}
}

func TestBalance_NegativeHeldPanics(t *testing.T) {
	b := balance{disputed: nn(t, "1"), resolved: nn(t, "1"), chargedback: nn(t, "1")}
	assert.Panics(t, func() { b.held() })
}

func TestEvictionSet(t *testing.T) {
	_, err := newEvictionSet(0)
	require.Error(t, err)

	s, err := newEvictionSet(2)
	require.NoError(t, err)

	_, ok := s.insert(1)
	assert.False(t, ok)
	_, ok = s.insert(2)
	assert.False(t, ok)

	// re-inserting a member refreshes it without evicting
	_, ok = s.insert(1)
	assert.False(t, ok)
	assert.Equal(t, 2, s.len())

	evicted, ok := s.insert(3)
	require.True(t, ok)
	assert.Equal(t, domain.TxID(2), evicted)
	assert.False(t, s.remove(2))
	assert.Equal(t, 2, s.len())

	assert.True(t, s.remove(1))
	assert.False(t, s.remove(1))
	assert.True(t, s.remove(3))
	assert.Equal(t, 0, s.len())

	_, ok = s.insert(4)
	assert.False(t, ok)
}

func TestLedger_Lifecycle(t *testing.T) {
	l, err := newLedger(1)
	require.NoError(t, err)

	dep := deposited{amount: domain.MustPositiveAmount("1"), client: 1}
	_, ok := l.record(10, dep)
	assert.False(t, ok)
	assert.True(t, l.known(10))
	assert.False(t, l.known(11))

	l.dispute(10, disputed(dep))
	st, ok := l.get(10)
	require.True(t, ok)
	assert.Equal(t, disputed(dep), st)

	// the disputed entry is outside the eviction set, so 11 fits without reclaiming it
	_, ok = l.record(11, withdrawn{})
	assert.False(t, ok)

	evicted, ok := l.resolve(10, dep)
	require.True(t, ok)
	assert.Equal(t, domain.TxID(11), evicted)
	assert.True(t, l.known(11))
	_, ok = l.get(11)
	assert.False(t, ok)
	assert.Equal(t, 1, l.len())

	l.dispute(10, disputed(dep))
	l.chargeback(10)
	assert.Equal(t, 0, l.len())
	assert.True(t, l.known(10))
}

func TestLedger_DisputeOutsideEvictionSetPanics(t *testing.T) {
	l, err := newLedger(4)
	require.NoError(t, err)

	dep := deposited{amount: domain.MustPositiveAmount("1"), client: 1}
	assert.Panics(t, func() { l.dispute(1, disputed(dep)) })
}
