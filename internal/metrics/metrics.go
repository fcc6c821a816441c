// Package metrics collects processing counters in a dedicated Prometheus registry.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vadiminshakov/balances/internal/domain"
)

const namespace = "balances"

// Outcome labels for processed rows.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
)

// KindMalformed labels rows whose type could not be decoded.
const KindMalformed = "unknown"

// Metrics holds the collectors. It also serves as the engine observer.
type Metrics struct {
	registry *prometheus.Registry

	transactions  *prometheus.CounterVec
	evictions     prometheus.Counter
	pruned        prometheus.Counter
	ledgerEntries prometheus.Gauge
	accounts      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Processed input rows by transaction type and outcome.",
		}, []string{"type", "outcome"}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_evictions_total",
			Help:      "Transactions reclaimed from the ledger under capacity pressure.",
		}),
		pruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_pruned_total",
			Help:      "Emptied accounts deleted from the balance table.",
		}),
		ledgerEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_entries",
			Help:      "Transactions currently referenceable by disputes.",
		}),
		accounts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts currently tracked.",
		}),
	}
}

// ObserveTx counts one processed row.
func (m *Metrics) ObserveTx(kind, outcome string) {
	m.transactions.WithLabelValues(kind, outcome).Inc()
}

// TxEvicted implements engine.Observer.
func (m *Metrics) TxEvicted(domain.TxID) {
	m.evictions.Inc()
}

// AccountPruned implements engine.Observer.
func (m *Metrics) AccountPruned(domain.ClientID) {
	m.pruned.Inc()
}

// SetSizes updates the memory gauges.
func (m *Metrics) SetSizes(ledgerEntries, accounts int) {
	m.ledgerEntries.Set(float64(ledgerEntries))
	m.accounts.Set(float64(accounts))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps all metrics in the text exposition format, suitable for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}

	return nil
}
