package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/balances/internal/domain"
)

var outputHeader = []string{"client", "available", "held", "total", "locked"}

// Writer encodes account snapshots as `client,available,held,total,locked` rows.
// The header is written once, even when no account follows.
type Writer struct {
	csv           *csv.Writer
	headerWritten bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write buffers one account row.
func (w *Writer) Write(acc domain.Account) error {
	if err := w.writeHeader(); err != nil {
		return err
	}

	record := []string{
		strconv.FormatUint(uint64(acc.Client), 10),
		acc.Available.String(),
		acc.Held.String(),
		acc.Total.String(),
		strconv.FormatBool(acc.Locked),
	}
	if err := w.csv.Write(record); err != nil {
		return errors.Wrapf(err, "write account %s", acc.Client)
	}

	return nil
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()

	return errors.Wrap(w.csv.Error(), "flush csv")
}

func (w *Writer) writeHeader() error {
	if w.headerWritten {
		return nil
	}
	if err := w.csv.Write(outputHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	w.headerWritten = true

	return nil
}
