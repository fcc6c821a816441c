package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// TxKind kind of a transaction record.
type TxKind int

const (
	TxDeposit TxKind = iota
	TxWithdrawal
	TxDispute
	TxResolve
	TxChargeback
)

// kind string constants as they appear in the input stream
const (
	txKindStringDeposit    = "deposit"
	txKindStringWithdrawal = "withdrawal"
	txKindStringDispute    = "dispute"
	txKindStringResolve    = "resolve"
	txKindStringChargeback = "chargeback"
)

// ParseTxKind parses a lowercase kind name.
func ParseTxKind(s string) (TxKind, error) {
	switch strings.TrimSpace(s) {
	case txKindStringDeposit:
		return TxDeposit, nil
	case txKindStringWithdrawal:
		return TxWithdrawal, nil
	case txKindStringDispute:
		return TxDispute, nil
	case txKindStringResolve:
		return TxResolve, nil
	case txKindStringChargeback:
		return TxChargeback, nil
	}

	return 0, errors.Errorf("unknown transaction type %q", s)
}

// String returns the string representation of the kind.
func (k TxKind) String() string {
	switch k {
	case TxDeposit:
		return txKindStringDeposit
	case TxWithdrawal:
		return txKindStringWithdrawal
	case TxDispute:
		return txKindStringDispute
	case TxResolve:
		return txKindStringResolve
	case TxChargeback:
		return txKindStringChargeback
	default:
		return "unknown"
	}
}

// CarriesAmount reports whether records of this kind require an amount.
func (k TxKind) CarriesAmount() bool {
	return k == TxDeposit || k == TxWithdrawal
}

// Tx a single transaction record addressed to a client account.
type Tx struct {
	Client ClientID
	ID     TxID
	Kind   TxKind
	// Amount is set for deposits and withdrawals only.
	Amount PositiveAmount
}

// NewDeposit creates a deposit record.
func NewDeposit(client ClientID, id TxID, amount PositiveAmount) Tx {
	return Tx{Client: client, ID: id, Kind: TxDeposit, Amount: amount}
}

// NewWithdrawal creates a withdrawal record.
func NewWithdrawal(client ClientID, id TxID, amount PositiveAmount) Tx {
	return Tx{Client: client, ID: id, Kind: TxWithdrawal, Amount: amount}
}

// NewDispute creates a dispute record referencing deposit id.
func NewDispute(client ClientID, id TxID) Tx {
	return Tx{Client: client, ID: id, Kind: TxDispute}
}

// NewResolve creates a resolve record referencing disputed id.
func NewResolve(client ClientID, id TxID) Tx {
	return Tx{Client: client, ID: id, Kind: TxResolve}
}

// NewChargeback creates a chargeback record referencing disputed id.
func NewChargeback(client ClientID, id TxID) Tx {
	return Tx{Client: client, ID: id, Kind: TxChargeback}
}

// String returns a human-readable representation.
func (t Tx) String() string {
	if t.Kind.CarriesAmount() {
		return fmt.Sprintf("%s %s %s amount: %s", t.Kind, t.Client, t.ID, t.Amount)
	}

	return fmt.Sprintf("%s %s %s", t.Kind, t.Client, t.ID)
}
