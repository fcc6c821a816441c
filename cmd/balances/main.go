// Command balances replays a CSV stream of client transactions and prints the
// resulting account balances as CSV.
//
// Usage:
//
//	balances transactions.csv > accounts.csv
//	balances --config balances.yaml - < transactions.csv
//	balances journal --dir ./wal/journal --after 100
//
// Environment overrides:
//
//	BALANCES_TX_CACHE_SIZE, BALANCES_PRUNE_ACCOUNTS, BALANCES_JOURNAL_DIR,
//	BALANCES_METRICS_FILE, BALANCES_LOG_LEVEL
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
