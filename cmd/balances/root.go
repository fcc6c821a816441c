package main

import (
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vadiminshakov/balances/config"
	"github.com/vadiminshakov/balances/internal/engine"
	"github.com/vadiminshakov/balances/internal/metrics"
	"github.com/vadiminshakov/balances/internal/processor"
	"github.com/vadiminshakov/balances/internal/storage/journal"
	"github.com/vadiminshakov/balances/pkg/retrier"
	"go.uber.org/zap"
)

const stdinArg = "-"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances [flags] TRANSACTIONS_CSV",
		Short: "Apply client transactions and print account balances",
		Long: `Reads a CSV stream with a "type,client,tx,amount" header, applies deposits,
withdrawals, disputes, resolves and chargebacks in order and prints one
"client,available,held,total,locked" row per account. Use "-" to read stdin.
Invalid rows and rejected transactions are logged to stderr and skipped.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runBalances,
	}
	config.RegisterFlags(cmd.Flags())
	cmd.AddCommand(newJournalCmd())

	return cmd
}

func runBalances(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	in, closeInput, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeInput()

	m := metrics.New()
	eng, err := engine.New(
		engine.WithTxCacheSize(cfg.TxCacheSize),
		engine.WithAccountPruning(cfg.PruneAccounts),
		engine.WithLogger(logger.Named("engine")),
		engine.WithObserver(m),
	)
	if err != nil {
		return err
	}

	opts := []processor.Option{
		processor.WithLogger(logger.Named("processor")),
		processor.WithRecorder(m),
		processor.WithSortedOutput(cfg.SortOutput),
	}
	retry := newRetrier(logger)
	if cfg.JournalDir != "" {
		store, err := retrier.DoWithData(cmd.Context(), retry, func(context.Context) (*journal.WALStore, error) {
			return journal.NewWALStore(cfg.JournalDir, journal.WithSyncWrites(cfg.JournalSync))
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close journal", zap.Error(err))
			}
		}()
		opts = append(opts, processor.WithJournal(store))
	}

	summary, err := processor.New(eng, opts...).Run(cmd.Context(), in, cmd.OutOrStdout())
	if err != nil {
		logger.Error("run failed", zap.String("run_id", summary.RunID), zap.Error(err))
		return err
	}

	if cfg.MetricsFile != "" {
		err := retry.Do(cmd.Context(), func(context.Context) error {
			return m.WriteTextfile(cfg.MetricsFile)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func openInput(cmd *cobra.Command, name string) (io.Reader, func(), error) {
	if name == stdinArg {
		return cmd.InOrStdin(), func() {}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input")
	}

	return f, func() { _ = f.Close() }, nil
}

// newRetrier retries transient disk failures. Permission problems are reported at once.
func newRetrier(logger *zap.Logger) *retrier.Retrier {
	return retrier.New(
		retrier.WithRetryIf(func(err error) bool {
			return !errors.Is(err, fs.ErrPermission)
		}),
		retrier.OnRetry(func(attempt int, err error) {
			logger.Warn("retrying disk operation", zap.Int("attempt", attempt), zap.Error(err))
		}),
	)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	return logger, nil
}
