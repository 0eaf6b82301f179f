// Package metrics exposes Prometheus counters and histograms for schema
// reconciliation and query execution. A nil *Collector is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Ensure result label values.
const (
	EnsureNoop    = "noop"
	EnsureApplied = "applied"
	EnsureFailed  = "failed"
)

// Collector wraps the Prometheus metrics for tabula with its own registry.
type Collector struct {
	registry *prometheus.Registry

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Ensures           *prometheus.CounterVec
	Statements        *prometheus.CounterVec
	StatementDuration *prometheus.HistogramVec
}

// New creates a Collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{registry: reg}

	c.Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schema_operations_total",
		Help:      "Schema operations applied, by table, operation and status",
	}, []string{"table", "op", "status"})

	c.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "schema_operation_duration_seconds",
		Help:      "Duration of schema operations in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	c.Ensures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ensure_total",
		Help:      "Table reconciliations, by table and result",
	}, []string{"table", "result"})

	c.Statements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_statements_total",
		Help:      "Query builder statements executed, by kind and status",
	}, []string{"kind", "status"})

	c.StatementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_statement_duration_seconds",
		Help:      "Duration of query builder statements in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	reg.MustRegister(c.Operations, c.OperationDuration, c.Ensures, c.Statements, c.StatementDuration)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler that serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOperation records one applied (or failed) schema operation.
func (c *Collector) RecordOperation(table, op string, err error, d time.Duration) {
	if c == nil {
		return
	}
	c.Operations.WithLabelValues(table, op, status(err)).Inc()
	c.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordEnsure records the outcome of one table reconciliation.
func (c *Collector) RecordEnsure(table string, applied int, err error) {
	if c == nil {
		return
	}
	result := EnsureNoop
	switch {
	case err != nil:
		result = EnsureFailed
	case applied > 0:
		result = EnsureApplied
	}
	c.Ensures.WithLabelValues(table, result).Inc()
}

// RecordStatement records one query builder statement.
// kind is select, insert, update, delete or count.
func (c *Collector) RecordStatement(kind string, err error, d time.Duration) {
	if c == nil {
		return
	}
	c.Statements.WithLabelValues(kind, status(err)).Inc()
	c.StatementDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
