// Package engine keeps client balances and applies transactions to them.
//
// The engine is single-threaded: callers serialize ProcessTx calls.
// A rejected transaction leaves the engine exactly as it was before the call.
package engine

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/balances/internal/domain"
	"go.uber.org/zap"
)

// DefaultTxCacheSize bounds the number of non-disputed transactions kept referenceable.
// Expected footprint is roughly 64Mi entries * 32B = 2GiB.
const DefaultTxCacheSize = 64 * 1024 * 1024

// Observer receives storage reclamation events. Reclamation is not a business event,
// so observers are for bookkeeping only.
type Observer interface {
	TxEvicted(id domain.TxID)
	AccountPruned(client domain.ClientID)
}

// Stats describes engine memory usage.
type Stats struct {
	LedgerEntries int
	// Evictable counts ledger entries that may be reclaimed under capacity pressure.
	Evictable int
	Accounts  int
	Evicted   uint64
	Pruned    uint64
}

// Option defines a function to configure the Engine.
type Option func(*Engine)

// WithTxCacheSize sets how many non-disputed transactions stay referenceable.
func WithTxCacheSize(size int) Option {
	return func(e *Engine) {
		e.txCacheSize = size
	}
}

// WithAccountPruning chooses whether emptied accounts are deleted.
func WithAccountPruning(enabled bool) Option {
	return func(e *Engine) {
		e.pruneAccounts = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver sets the reclamation observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine keeps balances and changes them according to processed transactions.
type Engine struct {
	balances map[domain.ClientID]*balance
	ledger   *ledger

	txCacheSize   int
	pruneAccounts bool
	logger        *zap.Logger
	observer      Observer

	evicted uint64
	pruned  uint64
}

// New creates an Engine. Account pruning is enabled by default.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		balances:      make(map[domain.ClientID]*balance),
		txCacheSize:   DefaultTxCacheSize,
		pruneAccounts: true,
		logger:        zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	l, err := newLedger(e.txCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "init ledger")
	}
	e.ledger = l

	return e, nil
}

// ProcessTx applies a single transaction. Rejections are returned as *TxError and match
// one of the package sentinels with errors.Is.
func (e *Engine) ProcessTx(tx domain.Tx) error {
	var err error
	switch tx.Kind {
	case domain.TxDeposit:
		err = e.deposit(tx.Client, tx.ID, tx.Amount)
	case domain.TxWithdrawal:
		err = e.withdraw(tx.Client, tx.ID, tx.Amount)
	case domain.TxDispute:
		err = e.dispute(tx.Client, tx.ID)
	case domain.TxResolve:
		err = e.resolve(tx.Client, tx.ID)
	case domain.TxChargeback:
		err = e.chargeback(tx.Client, tx.ID)
	default:
		err = errors.Errorf("unknown transaction kind %d", int(tx.Kind))
	}

	if err != nil {
		return &TxError{Kind: tx.Kind, Client: tx.Client, TxID: tx.ID, Err: err}
	}

	return nil
}

// Accounts returns a lazy sequence over all tracked balances. Order is unspecified.
// The engine must not be mutated while the sequence is consumed.
func (e *Engine) Accounts() iter.Seq[domain.Account] {
	return func(yield func(domain.Account) bool) {
		for client, b := range e.balances {
			if !yield(b.snapshot(client)) {
				return
			}
		}
	}
}

// Stats returns current memory usage counters.
func (e *Engine) Stats() Stats {
	return Stats{
		LedgerEntries: e.ledger.len(),
		Evictable:     e.ledger.evictable.len(),
		Accounts:      len(e.balances),
		Evicted:       e.evicted,
		Pruned:        e.pruned,
	}
}

func (e *Engine) deposit(client domain.ClientID, id domain.TxID, amount domain.PositiveAmount) error {
	if !amount.IsSet() {
		return errors.Wrap(domain.ErrNonPositiveAmount, "deposit amount is missing")
	}
	if e.ledger.known(id) {
		return ErrDuplicateTxID
	}

	b, exists := e.balances[client]
	if !exists {
		b = &balance{}
	}

	depositedTotal, err := b.deposited.Add(amount)
	if err != nil {
		return err
	}
	b.deposited = depositedTotal
	if !exists {
		e.balances[client] = b
	}

	e.afterReclaim(e.ledger.record(id, deposited{amount: amount, client: client}))

	return nil
}

func (e *Engine) withdraw(client domain.ClientID, id domain.TxID, amount domain.PositiveAmount) error {
	if !amount.IsSet() {
		return errors.Wrap(domain.ErrNonPositiveAmount, "withdrawal amount is missing")
	}
	if e.ledger.known(id) {
		return ErrDuplicateTxID
	}

	b, exists := e.balances[client]
	if !exists {
		return &InsufficientFundsError{Client: client, Available: domain.ZeroAmount}
	}
	if b.locked() {
		return &AccountLockedError{Client: client}
	}
	if available := b.available(); available < amount.Amount() {
		return &InsufficientFundsError{Client: client, Available: available}
	}

	withdrawnTotal, err := b.withdrawn.Add(amount)
	if err != nil {
		return err
	}
	b.withdrawn = withdrawnTotal

	e.afterReclaim(e.ledger.record(id, withdrawn{}))
	e.pruneIfEmpty(client, b)

	return nil
}

func (e *Engine) dispute(client domain.ClientID, id domain.TxID) error {
	dep, err := e.expectDeposited(client, id)
	if err != nil {
		return err
	}

	// the account may have been pruned after the deposit was fully withdrawn
	b, exists := e.balances[client]
	if !exists {
		b = &balance{}
	}

	disputedTotal, err := b.disputed.Add(dep.amount)
	if err != nil {
		return err
	}
	b.disputed = disputedTotal
	if !exists {
		e.balances[client] = b
	}

	e.ledger.dispute(id, disputed(dep))

	return nil
}

func (e *Engine) resolve(client domain.ClientID, id domain.TxID) error {
	dis, err := e.expectDisputed(client, id)
	if err != nil {
		return err
	}

	b := e.mustBalance(client)
	resolvedTotal, err := b.resolved.Add(dis.amount)
	if err != nil {
		return err
	}
	b.resolved = resolvedTotal

	e.afterReclaim(e.ledger.resolve(id, deposited(dis)))
	e.pruneIfEmpty(client, b)

	return nil
}

func (e *Engine) chargeback(client domain.ClientID, id domain.TxID) error {
	dis, err := e.expectDisputed(client, id)
	if err != nil {
		return err
	}

	b := e.mustBalance(client)
	chargedbackTotal, err := b.chargedback.Add(dis.amount)
	if err != nil {
		return err
	}
	b.chargedback = chargedbackTotal

	e.ledger.chargeback(id)

	return nil
}

func (e *Engine) expectDeposited(client domain.ClientID, id domain.TxID) (deposited, error) {
	st, ok := e.ledger.get(id)
	if !ok {
		return deposited{}, ErrUnknownTxID
	}

	switch st := st.(type) {
	case deposited:
		if st.client != client {
			return deposited{}, clientMismatch(id, st.client, client)
		}
		return st, nil
	case withdrawn, disputed:
		return deposited{}, unexpectedState(id, st, deposited{}.stateName())
	default:
		panic(fmt.Sprintf("unhandled tx state %T", st))
	}
}

func (e *Engine) expectDisputed(client domain.ClientID, id domain.TxID) (disputed, error) {
	st, ok := e.ledger.get(id)
	if !ok {
		return disputed{}, ErrUnknownTxID
	}

	switch st := st.(type) {
	case disputed:
		if st.client != client {
			return disputed{}, clientMismatch(id, st.client, client)
		}
		return st, nil
	case deposited, withdrawn:
		return disputed{}, unexpectedState(id, st, disputed{}.stateName())
	default:
		panic(fmt.Sprintf("unhandled tx state %T", st))
	}
}

func (e *Engine) mustBalance(client domain.ClientID) *balance {
	b, ok := e.balances[client]
	if !ok {
		panic(fmt.Sprintf("invariant violated: disputed account %s was pruned", client))
	}

	return b
}

func (e *Engine) pruneIfEmpty(client domain.ClientID, b *balance) {
	if !e.pruneAccounts || !b.canBePruned() {
		return
	}

	delete(e.balances, client)
	e.pruned++
	e.logger.Debug("account pruned", zap.Stringer("client", client))
	if e.observer != nil {
		e.observer.AccountPruned(client)
	}
}

func (e *Engine) afterReclaim(evicted domain.TxID, ok bool) {
	if !ok {
		return
	}

	e.evicted++
	e.logger.Debug("tx evicted from ledger", zap.Stringer("tx", evicted))
	if e.observer != nil {
		e.observer.TxEvicted(evicted)
	}
}
