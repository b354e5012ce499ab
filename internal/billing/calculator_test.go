package billing

import (
	"testing"

	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/plan"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
	"github.com/stretchr/testify/assert"
)

func TestOverage(t *testing.T) {
	assert.Equal(t, int64(2000), Overage(12000, 10000))
	assert.Equal(t, int64(0), Overage(9999, 10000))
	assert.Equal(t, int64(0), Overage(10000, 10000))
	assert.Equal(t, int64(0), Overage(1_000_000_000, plan.Unlimited))
}

func TestComputeChargesStarterOverage(t *testing.T) {
	m := &usagedomain.PeriodMetrics{
		PlanID:           plan.Starter,
		APICalls:         12000,
		MaxAPICalls:      10000,
		MaxDataProcessed: 1_000_000_000,
		MaxStorage:       5_000_000_000,
	}

	overages, charges := ComputeCharges(m, config.DefaultBillingConfig())
	assert.Equal(t, int64(2000), overages.APICalls)
	assert.InDelta(t, 2.00, charges.OverageCost, 1e-9)
	assert.InDelta(t, 29.00, charges.BaseCost, 1e-9)
	assert.InDelta(t, 31.00, charges.TotalCost, 1e-9)
}

func TestComputeChargesUnlimited(t *testing.T) {
	m := &usagedomain.PeriodMetrics{
		PlanID:           plan.Enterprise,
		APICalls:         5_000_000,
		DataProcessed:    900_000_000_000,
		StorageUsed:      700_000_000_000,
		MaxAPICalls:      plan.Unlimited,
		MaxDataProcessed: plan.Unlimited,
		MaxStorage:       plan.Unlimited,
	}

	overages, charges := ComputeCharges(m, config.DefaultBillingConfig())
	assert.Equal(t, usagedomain.Overages{}, overages)
	assert.InDelta(t, 0, charges.OverageCost, 1e-9)
	assert.InDelta(t, 299.00, charges.TotalCost, 1e-9)
}

func TestComputeChargesDataAndStorageRates(t *testing.T) {
	m := &usagedomain.PeriodMetrics{
		PlanID:           plan.Starter,
		DataProcessed:    2_000_000_000, // 1 GB over
		StorageUsed:      7_000_000_000, // 2 GB over
		MaxAPICalls:      10000,
		MaxDataProcessed: 1_000_000_000,
		MaxStorage:       5_000_000_000,
	}

	_, charges := ComputeCharges(m, config.DefaultBillingConfig())
	// 1 GB data at $0.1/GB + 2 GB storage at $0.05/GB
	assert.InDelta(t, 0.1+0.1, charges.OverageCost, 1e-6)
}

func TestUtilization(t *testing.T) {
	ratio, ok := Utilization(8500, 10000)
	assert.True(t, ok)
	assert.InDelta(t, 0.85, ratio, 1e-9)

	_, ok = Utilization(8500, plan.Unlimited)
	assert.False(t, ok)
}

func TestComputeChargesNilSnapshot(t *testing.T) {
	overages, charges := ComputeCharges(nil, config.DefaultBillingConfig())
	assert.Equal(t, usagedomain.Overages{}, overages)
	assert.InDelta(t, 0, charges.BaseCost, 1e-9)
}
