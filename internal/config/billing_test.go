package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBillingConfig(t *testing.T) {
	cfg := DefaultBillingConfig()
	require.NoError(t, validateBillingConfig(cfg))

	assert.Equal(t, float64(29), cfg.BaseCost("starter"))
	assert.Equal(t, float64(99), cfg.BaseCost("professional"))
	assert.Equal(t, float64(299), cfg.BaseCost("enterprise"))
	assert.Equal(t, float64(0), cfg.BaseCost("unknown"))
	assert.Equal(t, float64(29), cfg.BaseCost(" Starter "))

	assert.InDelta(t, 0.001, cfg.OverageRates.APICallsPerCall, 1e-12)
	assert.InDelta(t, 0.0000001, cfg.OverageRates.DataProcessedPerByte, 1e-15)
	assert.InDelta(t, 0.00000005, cfg.OverageRates.StoragePerByte, 1e-15)
	assert.InDelta(t, 0.8, cfg.AlertThreshold, 1e-12)
}

func TestValidateBillingConfig(t *testing.T) {
	cfg := DefaultBillingConfig()
	cfg.AlertThreshold = 1.2
	assert.Error(t, validateBillingConfig(cfg))

	cfg = DefaultBillingConfig()
	cfg.OverageRates.StoragePerByte = -1
	assert.Error(t, validateBillingConfig(cfg))

	cfg = DefaultBillingConfig()
	cfg.BaseCosts = nil
	assert.Error(t, validateBillingConfig(cfg))
}
