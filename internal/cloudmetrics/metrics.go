// Package cloudmetrics exports usage-accounting metrics from self-hosted
// deployments to the hosted control plane. It is inert outside cloud mode.
package cloudmetrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	usageEvents       *prometheus.CounterVec
	invoicesGenerated *prometheus.CounterVec
	tenantsTotal      prometheus.Gauge
	memoryBytes       prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		usageEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightboard_accounting_usage_events_total",
			Help: "Usage events recorded, by tenant and event type.",
		}, []string{"tenant", "event_type"}),
		invoicesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightboard_accounting_invoices_generated_total",
			Help: "Invoice documents generated, by tenant.",
		}, []string{"tenant"}),
		tenantsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insightboard_accounting_tenants_total",
			Help: "Tenants registered on this instance.",
		}),
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insightboard_accounting_memory_sys_bytes",
			Help: "Process memory obtained from the OS.",
		}),
	}

	registry.MustRegister(m.usageEvents, m.invoicesGenerated, m.tenantsTotal, m.memoryBytes)
	return m
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
