// Package domain defines core data structures shared by the engine and its collaborators.
package domain

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ClientID identifies a client account.
type ClientID uint16

// String returns the string representation used in logs and errors.
func (c ClientID) String() string {
	return fmt.Sprintf("C:%d", uint16(c))
}

// ParseClientID parses a decimal client id.
func ParseClientID(s string) (ClientID, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid client id %q", s)
	}

	return ClientID(v), nil
}

// TxID identifies a transaction, globally unique across the input stream.
type TxID uint32

// String returns the string representation used in logs and errors.
func (t TxID) String() string {
	return fmt.Sprintf("T:%d", uint32(t))
}

// ParseTxID parses a decimal transaction id.
func ParseTxID(s string) (TxID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid tx id %q", s)
	}

	return TxID(v), nil
}
