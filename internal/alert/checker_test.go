package alert

import (
	"testing"

	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/plan"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker() *Checker {
	return NewChecker(config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()))
}

func TestCheckEmitsAboveThreshold(t *testing.T) {
	checker := newChecker()

	alerts := checker.Check(&usagedomain.PeriodMetrics{
		APICalls:         8500,
		MaxAPICalls:      10000,
		DataProcessed:    100,
		MaxDataProcessed: 1_000_000_000,
		StorageUsed:      100,
		MaxStorage:       5_000_000_000,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, TypeWarning, alerts[0].Type)
	assert.Equal(t, MetricAPICalls, alerts[0].Metric)
	assert.Equal(t, int64(8500), alerts[0].Current)
	assert.InDelta(t, 85.0, alerts[0].Percentage, 1e-9)
}

func TestCheckThresholdIsStrict(t *testing.T) {
	checker := newChecker()

	// exactly 80% does not trip the warning
	alerts := checker.Check(&usagedomain.PeriodMetrics{
		APICalls:         8000,
		MaxAPICalls:      10000,
		MaxDataProcessed: 1_000_000_000,
		MaxStorage:       5_000_000_000,
	})
	assert.Empty(t, alerts)
}

func TestCheckSkipsUnlimited(t *testing.T) {
	checker := newChecker()

	alerts := checker.Check(&usagedomain.PeriodMetrics{
		APICalls:         50_000_000,
		DataProcessed:    900_000_000_000,
		StorageUsed:      900_000_000_000,
		MaxAPICalls:      plan.Unlimited,
		MaxDataProcessed: plan.Unlimited,
		MaxStorage:       plan.Unlimited,
	})
	assert.Empty(t, alerts)
}

func TestCheckMissingSnapshot(t *testing.T) {
	assert.Empty(t, newChecker().Check(nil))
}
