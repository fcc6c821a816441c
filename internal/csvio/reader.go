// Package csvio reads transaction records from and writes account snapshots to CSV streams.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/balances/internal/domain"
)

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// ErrMissingAmount a deposit or withdrawal row has no amount.
var ErrMissingAmount = errors.New("field amount is missing")

// RowError describes a malformed input row. Row is 1-based and does not count the header.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader decodes transactions from a CSV stream with a `type,client,tx,amount` header.
// Fields are trimmed and rows may omit the trailing amount column.
type Reader struct {
	csv *csv.Reader
	row int

	typeIdx, clientIdx, txIdx int
	amountIdx                 int // -1 when the header has no amount column
}

// NewReader reads the header and prepares the reader.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("input is empty, header expected")
		}
		return nil, errors.Wrap(err, "read header")
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	reader := &Reader{csv: cr, amountIdx: -1}
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{colType, &reader.typeIdx},
		{colClient, &reader.clientIdx},
		{colTx, &reader.txIdx},
	} {
		i, ok := idx[col.name]
		if !ok {
			return nil, errors.Errorf("header has no %q column", col.name)
		}
		*col.dst = i
	}
	if i, ok := idx[colAmount]; ok {
		reader.amountIdx = i
	}

	return reader, nil
}

// Next returns the next transaction. Malformed rows are reported as *RowError and reading
// may continue; io.EOF marks the end of input.
func (r *Reader) Next() (domain.Tx, error) {
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return domain.Tx{}, io.EOF
	}
	r.row++
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return domain.Tx{}, &RowError{Row: r.row, Err: err}
		}
		return domain.Tx{}, errors.Wrap(err, "read csv")
	}

	tx, err := r.decode(record)
	if err != nil {
		return domain.Tx{}, &RowError{Row: r.row, Err: err}
	}

	return tx, nil
}

// Row returns the number of data rows consumed so far.
func (r *Reader) Row() int {
	return r.row
}

func (r *Reader) decode(record []string) (domain.Tx, error) {
	kind, err := domain.ParseTxKind(field(record, r.typeIdx))
	if err != nil {
		return domain.Tx{}, err
	}
	client, err := domain.ParseClientID(field(record, r.clientIdx))
	if err != nil {
		return domain.Tx{}, err
	}
	id, err := domain.ParseTxID(field(record, r.txIdx))
	if err != nil {
		return domain.Tx{}, err
	}

	tx := domain.Tx{Client: client, ID: id, Kind: kind}
	if !kind.CarriesAmount() {
		return tx, nil
	}

	raw := field(record, r.amountIdx)
	if raw == "" {
		return domain.Tx{}, ErrMissingAmount
	}
	amount, err := domain.ParseAmount(raw)
	if err != nil {
		return domain.Tx{}, err
	}
	tx.Amount, err = domain.NewPositiveAmount(amount)
	if err != nil {
		return domain.Tx{}, err
	}

	return tx, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[i])
}
