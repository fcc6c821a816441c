// Package processor streams transactions from a CSV source through the engine and
// writes the resulting account snapshot.
package processor

import (
	"cmp"
	"context"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/balances/internal/csvio"
	"github.com/vadiminshakov/balances/internal/domain"
	"github.com/vadiminshakov/balances/internal/engine"
	"github.com/vadiminshakov/balances/internal/metrics"
	"github.com/vadiminshakov/balances/internal/storage/journal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const queueSize = 1024

// Journal receives the outcome of every row.
type Journal interface {
	Append(entry journal.Entry) (uint64, error)
}

// Recorder receives processing counters.
type Recorder interface {
	ObserveTx(kind, outcome string)
	SetSizes(ledgerEntries, accounts int)
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Rows      int
	Accepted  int
	Rejected  int
	Malformed int
}

// Option defines a function to configure the Processor.
type Option func(*Processor)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithJournal(j Journal) Option {
	return func(p *Processor) {
		p.journal = j
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		p.recorder = r
	}
}

// WithSortedOutput orders the snapshot by client id.
func WithSortedOutput(sorted bool) Option {
	return func(p *Processor) {
		p.sorted = sorted
	}
}

func WithRunID(id string) Option {
	return func(p *Processor) {
		if id != "" {
			p.runID = id
		}
	}
}

// Processor drives one engine. It is not safe for concurrent Run calls.
type Processor struct {
	engine   *engine.Engine
	logger   *zap.Logger
	journal  Journal
	recorder Recorder
	sorted   bool
	runID    string
}

func New(eng *engine.Engine, opts ...Option) *Processor {
	p := &Processor{
		engine: eng,
		logger: zap.NewNop(),
		sorted: true,
		runID:  uuid.NewString(),
	}

	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("run_id", p.runID))

	return p
}

type item struct {
	row int
	tx  domain.Tx
	err error
}

// Run reads every transaction from in, applies it and writes the account snapshot to out.
// Malformed rows and rejected transactions are logged and skipped. Cancelling ctx stops the
// run between transactions and no snapshot is written.
func (p *Processor) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	summary := Summary{RunID: p.runID}

	reader, err := csvio.NewReader(in)
	if err != nil {
		return summary, errors.Wrap(err, "open transactions")
	}

	items := make(chan item, queueSize)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(items)
		return p.read(ctx, reader, items)
	})

	g.Go(func() error {
		for it := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.apply(it, &summary); err != nil {
				return err
			}
		}

		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}

	stats := p.engine.Stats()
	if p.recorder != nil {
		p.recorder.SetSizes(stats.LedgerEntries, stats.Accounts)
	}

	if err := p.writeSnapshot(out); err != nil {
		return summary, err
	}

	p.logger.Info("run finished",
		zap.Int("rows", summary.Rows),
		zap.Int("accepted", summary.Accepted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("malformed", summary.Malformed),
		zap.Int("accounts", stats.Accounts),
		zap.Int("ledger_entries", stats.LedgerEntries),
		zap.Int("evictable", stats.Evictable),
		zap.Uint64("evicted", stats.Evicted),
		zap.Uint64("pruned", stats.Pruned),
	)

	return summary, nil
}

func (p *Processor) read(ctx context.Context, reader *csvio.Reader, items chan<- item) error {
	for ctx.Err() == nil {
		tx, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var rowErr *csvio.RowError
		if err != nil && !errors.As(err, &rowErr) {
			return errors.Wrapf(err, "read row %d", reader.Row())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case items <- item{row: reader.Row(), tx: tx, err: err}:
		}
	}

	return ctx.Err()
}

func (p *Processor) apply(it item, summary *Summary) error {
	summary.Rows++

	if it.err != nil {
		summary.Malformed++
		p.logger.Warn("skipping malformed row", zap.Int("row", it.row), zap.Error(it.err))
		p.observe(metrics.KindMalformed, metrics.OutcomeMalformed)

		return p.record(journal.Entry{Row: it.row, Status: journal.StatusMalformed, Reason: it.err.Error()})
	}

	entry := journal.Entry{
		Row:    it.row,
		Type:   it.tx.Kind.String(),
		Client: uint16(it.tx.Client),
		Tx:     uint32(it.tx.ID),
	}
	if it.tx.Amount.IsSet() {
		entry.Amount = it.tx.Amount.Amount()
	}

	if err := p.engine.ProcessTx(it.tx); err != nil {
		summary.Rejected++
		p.logger.Warn("transaction rejected",
			zap.Int("row", it.row),
			zap.Stringer("client", it.tx.Client),
			zap.Stringer("tx", it.tx.ID),
			zap.Stringer("type", it.tx.Kind),
			zap.Error(err),
		)
		p.observe(entry.Type, metrics.OutcomeRejected)
		entry.Status = journal.StatusRejected
		entry.Reason = err.Error()

		return p.record(entry)
	}

	summary.Accepted++
	p.observe(entry.Type, metrics.OutcomeAccepted)
	entry.Status = journal.StatusAccepted

	return p.record(entry)
}

func (p *Processor) observe(kind, outcome string) {
	if p.recorder != nil {
		p.recorder.ObserveTx(kind, outcome)
	}
}

func (p *Processor) record(entry journal.Entry) error {
	if p.journal == nil {
		return nil
	}

	entry.RunID = p.runID
	if _, err := p.journal.Append(entry); err != nil {
		return errors.Wrapf(err, "journal row %d", entry.Row)
	}

	return nil
}

func (p *Processor) writeSnapshot(out io.Writer) error {
	w := csvio.NewWriter(out)

	if p.sorted {
		accounts := slices.SortedFunc(p.engine.Accounts(), func(a, b domain.Account) int {
			return cmp.Compare(a.Client, b.Client)
		})
		for _, acc := range accounts {
			if err := w.Write(acc); err != nil {
				return err
			}
		}
	} else {
		for acc := range p.engine.Accounts() {
			if err := w.Write(acc); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}
