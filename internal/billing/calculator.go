// Package billing derives overage quantities and monetary charges from a
// period metrics snapshot. Everything here is pure computation; amounts
// are full-precision float64 dollars, formatted only at presentation.
package billing

import (
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/plan"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

// Overage returns max(0, counter-limit). An unlimited limit never
// produces an overage regardless of the counter.
func Overage(counter, limit int64) int64 {
	if limit == plan.Unlimited {
		return 0
	}
	if counter <= limit {
		return 0
	}
	return counter - limit
}

// ComputeOverages derives the billable overages from a snapshot's
// counters and its frozen limits.
func ComputeOverages(m *usagedomain.PeriodMetrics) usagedomain.Overages {
	if m == nil {
		return usagedomain.Overages{}
	}
	return usagedomain.Overages{
		APICalls:      Overage(m.APICalls, m.MaxAPICalls),
		DataProcessed: Overage(m.DataProcessed, m.MaxDataProcessed),
		Storage:       Overage(m.StorageUsed, m.MaxStorage),
	}
}

// OverageCost prices the overages with the configured per-unit rates.
func OverageCost(o usagedomain.Overages, rates config.OverageRates) float64 {
	return float64(o.APICalls)*rates.APICallsPerCall +
		float64(o.DataProcessed)*rates.DataProcessedPerByte +
		float64(o.Storage)*rates.StoragePerByte
}

// ComputeCharges builds the full monetary view for a snapshot: the plan's
// base monthly fee plus priced overages.
func ComputeCharges(m *usagedomain.PeriodMetrics, cfg config.BillingConfig) (usagedomain.Overages, usagedomain.Charges) {
	overages := ComputeOverages(m)
	overageCost := OverageCost(overages, cfg.OverageRates)

	planID := ""
	if m != nil {
		planID = m.PlanID
	}
	baseCost := cfg.BaseCost(planID)

	return overages, usagedomain.Charges{
		BaseCost:    baseCost,
		OverageCost: overageCost,
		TotalCost:   baseCost + overageCost,
	}
}

// Utilization returns counter/limit, with ok=false for unlimited or
// non-positive limits where a percentage is meaningless.
func Utilization(counter, limit int64) (float64, bool) {
	if limit == plan.Unlimited || limit <= 0 {
		return 0, false
	}
	return float64(counter) / float64(limit), true
}
