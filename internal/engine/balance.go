package engine

import (
	"fmt"

	"github.com/vadiminshakov/balances/internal/domain"
)

// balance keeps per-client accumulators. Every accumulator only grows while the row exists;
// derived values are computed on read.
type balance struct {
	deposited domain.NonNegativeAmount
	withdrawn domain.NonNegativeAmount

	disputed    domain.NonNegativeAmount
	resolved    domain.NonNegativeAmount
	chargedback domain.NonNegativeAmount
}

// available = deposited - withdrawn - disputed + resolved, saturating left to right.
func (b *balance) available() domain.Amount {
	return b.deposited.Amount().
		SaturatingSub(b.withdrawn.Amount()).
		SaturatingSub(b.disputed.Amount()).
		SaturatingAdd(b.resolved.Amount())
}

// held = disputed - resolved - chargedback.
func (b *balance) held() domain.NonNegativeAmount {
	held := b.disputed.Amount().
		SaturatingSub(b.resolved.Amount()).
		SaturatingSub(b.chargedback.Amount())

	nn, err := domain.NewNonNegativeAmount(held)
	if err != nil {
		panic(fmt.Sprintf("invariant violated: held funds must not be negative: %v", err))
	}

	return nn
}

// total = deposited - withdrawn - chargedback. Disputes and resolves only move funds
// between available and held.
func (b *balance) total() domain.Amount {
	return b.deposited.Amount().
		SaturatingSub(b.withdrawn.Amount()).
		SaturatingSub(b.chargedback.Amount())
}

func (b *balance) locked() bool {
	return b.chargedback.Amount().Sign() > 0
}

func (b *balance) canBePruned() bool {
	return !b.locked() &&
		b.held().Amount().Sign() == 0 &&
		b.total().Sign() == 0
}

func (b *balance) snapshot(client domain.ClientID) domain.Account {
	return domain.Account{
		Client:    client,
		Available: b.available(),
		Held:      b.held(),
		Total:     b.total(),
		Locked:    b.locked(),
	}
}
