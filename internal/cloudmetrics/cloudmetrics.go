package cloudmetrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// CloudMetrics accumulates accounting counters and pushes them through
// the configured Pusher. A nil *CloudMetrics is safe to call; every
// method no-ops, so callers never branch on cloud mode.
type CloudMetrics struct {
	registry *prometheus.Registry
	metrics  *metrics
	pusher   Pusher
	log      *zap.Logger
}

func New(registry *prometheus.Registry, pusher Pusher, log *zap.Logger) *CloudMetrics {
	if log == nil {
		log = zap.NewNop()
	}
	return &CloudMetrics{
		registry: registry,
		metrics:  newMetrics(registry),
		pusher:   pusher,
		log:      log.Named("cloudmetrics"),
	}
}

func (c *CloudMetrics) RecordUsageEvent(tenant, eventType string) {
	if c == nil {
		return
	}
	c.metrics.usageEvents.WithLabelValues(normalizeLabel(tenant), normalizeLabel(eventType)).Inc()
}

func (c *CloudMetrics) RecordInvoiceGenerated(tenant string) {
	if c == nil {
		return
	}
	c.metrics.invoicesGenerated.WithLabelValues(normalizeLabel(tenant)).Inc()
}

func (c *CloudMetrics) SetTenantsTotal(count int64) {
	if c == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	c.metrics.tenantsTotal.Set(float64(count))
}

func (c *CloudMetrics) SetMemoryUsage(bytes uint64) {
	if c == nil {
		return
	}
	c.metrics.memoryBytes.Set(float64(bytes))
}

// Push sends the current registry state. Failures are reported, never fatal.
func (c *CloudMetrics) Push(ctx context.Context) error {
	if c == nil || c.pusher == nil {
		return nil
	}
	return c.pusher.Push(ctx, c.registry)
}
