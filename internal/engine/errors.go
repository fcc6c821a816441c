package engine

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/balances/internal/domain"
)

var (
	// ErrDuplicateTxID a deposit or withdrawal reuses an id that was already recorded.
	ErrDuplicateTxID = errors.New("duplicate tx id")
	// ErrOverflow an accumulator left the representable range.
	ErrOverflow = domain.ErrOverflow
	// ErrInsufficientFunds a withdrawal exceeds available funds.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountLocked a withdrawal targets a charged-back account.
	ErrAccountLocked = errors.New("account locked")
	// ErrUnknownTxID a dispute, resolve or chargeback references an id with no ledger entry.
	ErrUnknownTxID = errors.New("unknown tx id")
	// ErrUnexpectedTxState the referenced entry is in an incompatible state or owned by another client.
	ErrUnexpectedTxState = errors.New("unexpected tx state")
)

// InsufficientFundsError carries the available balance observed at rejection time.
type InsufficientFundsError struct {
	Client    domain.ClientID
	Available domain.Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s has %s available", e.Client, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// AccountLockedError names the locked account.
type AccountLockedError struct {
	Client domain.ClientID
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked: %s", e.Client)
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// TxError is returned by Engine.ProcessTx for every rejected transaction.
type TxError struct {
	Kind   domain.TxKind
	Client domain.ClientID
	TxID   domain.TxID
	Err    error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Client, e.TxID, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

func unexpectedState(id domain.TxID, st txState, want string) error {
	return errors.Wrapf(ErrUnexpectedTxState, "%s is %s, want %s", id, st.stateName(), want)
}

func clientMismatch(id domain.TxID, owner, got domain.ClientID) error {
	return errors.Wrapf(ErrUnexpectedTxState, "%s belongs to %s, not %s", id, owner, got)
}
