package engine

import "github.com/vadiminshakov/balances/internal/domain"

// txState is a ledger entry. The set of implementations is closed: deposited, withdrawn, disputed.
type txState interface {
	stateName() string
}

// deposited is a deposit that can be disputed, either never disputed or resolved back.
type deposited struct {
	amount domain.PositiveAmount
	client domain.ClientID
}

// withdrawn is a completed withdrawal. Withdrawals are not disputable, so no amount is kept.
type withdrawn struct{}

// disputed is a deposit under dispute; its amount is held.
type disputed struct {
	amount domain.PositiveAmount
	client domain.ClientID
}

func (deposited) stateName() string { return "deposited" }
func (withdrawn) stateName() string { return "withdrawn" }
func (disputed) stateName() string  { return "disputed" }
