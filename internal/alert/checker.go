// Package alert derives advisory usage warnings from a period metrics
// snapshot. Alerts are transient: recomputed on every query, never stored.
package alert

import (
	"github.com/insightboard/insightboard/internal/billing"
	"github.com/insightboard/insightboard/internal/config"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

const TypeWarning = "warning"

const (
	MetricAPICalls      = "api_calls"
	MetricDataProcessed = "data_processed"
	MetricStorage       = "storage"
)

// Alert flags a metric running close to its frozen limit.
type Alert struct {
	Type       string  `json:"type"`
	Metric     string  `json:"metric"`
	Current    int64   `json:"current"`
	Limit      int64   `json:"limit"`
	Percentage float64 `json:"percentage"`
}

type Checker struct {
	billingCfg *config.BillingConfigHolder
}

func NewChecker(billingCfg *config.BillingConfigHolder) *Checker {
	return &Checker{billingCfg: billingCfg}
}

// Check evaluates the billable metrics against the alert threshold.
// Unlimited limits are skipped entirely; a missing snapshot degrades to
// no alerts rather than an error.
func (c *Checker) Check(m *usagedomain.PeriodMetrics) []Alert {
	alerts := []Alert{}
	if m == nil {
		return alerts
	}

	threshold := c.billingCfg.Get().AlertThreshold

	checks := []struct {
		metric  string
		current int64
		limit   int64
	}{
		{MetricAPICalls, m.APICalls, m.MaxAPICalls},
		{MetricDataProcessed, m.DataProcessed, m.MaxDataProcessed},
		{MetricStorage, m.StorageUsed, m.MaxStorage},
	}

	for _, check := range checks {
		ratio, ok := billing.Utilization(check.current, check.limit)
		if !ok {
			continue
		}
		if ratio > threshold {
			alerts = append(alerts, Alert{
				Type:       TypeWarning,
				Metric:     check.metric,
				Current:    check.current,
				Limit:      check.limit,
				Percentage: ratio * 100,
			})
		}
	}
	return alerts
}
