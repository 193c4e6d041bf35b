// Package metrics exposes settlement counters over a private Prometheus
// registry so multiple collectors can coexist in one process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts settlement outcomes by entity kind.
type Collector struct {
	registry            *prometheus.Registry
	settlementsApplied  *prometheus.CounterVec
	settlementsRejected *prometheus.CounterVec
	ledgerMutations     *prometheus.CounterVec
	pendingRequests     *prometheus.GaugeVec
}

// NewCollector builds a collector backed by its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		settlementsApplied: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "settlements_applied_total",
			Help: "State transitions applied, by entity kind and new status",
		}, []string{"kind", "status"}),
		settlementsRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "settlements_rejected_total",
			Help: "State transitions rejected, by entity kind and reason",
		}, []string{"kind", "reason"}),
		ledgerMutations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Balance mutations applied, by operation",
		}, []string{"op"}),
		pendingRequests: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "pending_requests",
			Help: "Requests currently awaiting review, by entity kind",
		}, []string{"kind"}),
	}
}

// RecordApplied counts a successful transition.
func (c *Collector) RecordApplied(kind, status string) {
	c.settlementsApplied.WithLabelValues(kind, status).Inc()
}

// RecordRejected counts a refused transition.
func (c *Collector) RecordRejected(kind, reason string) {
	c.settlementsRejected.WithLabelValues(kind, reason).Inc()
}

// RecordLedgerMutation counts an applied balance operation.
func (c *Collector) RecordLedgerMutation(op string) {
	c.ledgerMutations.WithLabelValues(op).Inc()
}

// SetPendingRequests records the current review backlog for a kind.
func (c *Collector) SetPendingRequests(kind string, count int) {
	c.pendingRequests.WithLabelValues(kind).Set(float64(count))
}

// Handler serves the registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
