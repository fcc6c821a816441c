package processor

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/balances/internal/domain"
	"github.com/vadiminshakov/balances/internal/engine"
	"github.com/vadiminshakov/balances/internal/metrics"
	"github.com/vadiminshakov/balances/internal/storage/journal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memJournal struct {
	entries []journal.Entry
	failAt  int
}

func (j *memJournal) Append(e journal.Entry) (uint64, error) {
	if j.failAt > 0 && len(j.entries)+1 == j.failAt {
		return 0, errors.New("disk full")
	}
	e.Index = uint64(len(j.entries) + 1)
	j.entries = append(j.entries, e)

	return e.Index, nil
}

func newEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	e, err := engine.New(opts...)
	require.NoError(t, err)

	return e
}

func TestProcessor_Run(t *testing.T) {
	input := "type, client, tx, amount\n" +
		"deposit, 2, 1, 1.0\n" +
		"deposit, 1, 2, 2.0\n" +
		"deposit, 1, 3, 2.0\n" +
		"withdrawal, 1, 4, 1.5\n" +
		"withdrawal, 2, 5, 3.0\n" +
		"bogus, 1, 6, 1.0\n" +
		"dispute, 1, 2,\n" +
		"chargeback, 1, 2\n"

	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New()
	j := &memJournal{}
	p := New(newEngine(t, engine.WithObserver(m)),
		WithLogger(zap.New(core)),
		WithJournal(j),
		WithRecorder(m),
		WithRunID("run-1"),
	)

	var out bytes.Buffer
	summary, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{RunID: "run-1", Rows: 8, Accepted: 6, Rejected: 1, Malformed: 1}, summary)
	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,0.5000,0.0000,0.5000,true\n"+
			"2,1.0000,0.0000,1.0000,false\n",
		out.String())

	require.Len(t, j.entries, 8)
	assert.Equal(t, journal.Entry{
		Index: 5, RunID: "run-1", Row: 5, Type: "withdrawal", Client: 2, Tx: 5, Amount: domain.MustParseAmount("3"),
		Status: journal.StatusRejected, Reason: j.entries[4].Reason,
	}, j.entries[4])
	assert.Contains(t, j.entries[4].Reason, "insufficient funds")
	assert.Equal(t, journal.StatusMalformed, j.entries[5].Status)
	assert.Equal(t, 6, j.entries[5].Row)
	assert.Equal(t, journal.StatusAccepted, j.entries[7].Status)
	assert.Empty(t, j.entries[7].Amount)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "transaction rejected", warnings[0].Message)
	assert.Equal(t, "T:5", warnings[0].ContextMap()["tx"])
	assert.Equal(t, "skipping malformed row", warnings[1].Message)
	assert.Equal(t, int64(6), warnings[1].ContextMap()["row"])
	require.Equal(t, 1, logs.FilterMessage("run finished").Len())
	assert.Equal(t, "run-1", logs.FilterMessage("run finished").All()[0].ContextMap()["run_id"])

	expected := `
# HELP balances_transactions_total Processed input rows by transaction type and outcome.
# TYPE balances_transactions_total counter
balances_transactions_total{outcome="accepted",type="chargeback"} 1
balances_transactions_total{outcome="accepted",type="deposit"} 3
balances_transactions_total{outcome="accepted",type="dispute"} 1
balances_transactions_total{outcome="accepted",type="withdrawal"} 1
balances_transactions_total{outcome="malformed",type="unknown"} 1
balances_transactions_total{outcome="rejected",type="withdrawal"} 1
# HELP balances_accounts Accounts currently tracked.
# TYPE balances_accounts gauge
balances_accounts 2
# HELP balances_ledger_entries Transactions currently referenceable by disputes.
# TYPE balances_ledger_entries gauge
balances_ledger_entries 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"balances_transactions_total", "balances_accounts", "balances_ledger_entries"))
}

func TestProcessor_Unsorted(t *testing.T) {
	p := New(newEngine(t), WithSortedOutput(false))

	var out bytes.Buffer
	_, err := p.Run(context.Background(), strings.NewReader("type,client,tx,amount\ndeposit,3,1,1\ndeposit,1,2,1\n"), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "client,available,held,total,locked", lines[0])
	assert.ElementsMatch(t, []string{"1,1.0000,0.0000,1.0000,false", "3,1.0000,0.0000,1.0000,false"}, lines[1:])
}

func TestProcessor_EmptyInput(t *testing.T) {
	p := New(newEngine(t))

	var out bytes.Buffer
	summary, err := p.Run(context.Background(), strings.NewReader("type,client,tx,amount\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Rows)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "client,available,held,total,locked\n", out.String())

	_, err = p.Run(context.Background(), strings.NewReader(""), &out)
	assert.Error(t, err)
}

func TestProcessor_JournalFailureStopsRun(t *testing.T) {
	j := &memJournal{failAt: 2}
	p := New(newEngine(t), WithJournal(j))

	var out bytes.Buffer
	_, err := p.Run(context.Background(), strings.NewReader("type,client,tx,amount\ndeposit,1,1,1\ndeposit,1,2,1\ndeposit,1,3,1\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal row 2")
	assert.Empty(t, out.String())
}

func TestProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(newEngine(t))
	var out bytes.Buffer
	_, err := p.Run(ctx, strings.NewReader("type,client,tx,amount\ndeposit,1,1,1\n"), &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
