package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitsFor(t *testing.T) {
	limits, ok := LimitsFor("starter")
	require.True(t, ok)
	assert.Equal(t, int64(10_000), limits.APICalls)
	assert.Equal(t, int64(1_000_000_000), limits.DataProcessed)

	limits, ok = LimitsFor(" Enterprise ")
	require.True(t, ok)
	assert.Equal(t, Unlimited, limits.APICalls)
	assert.Equal(t, Unlimited, limits.Users)
	assert.Equal(t, Unlimited, limits.Dashboards)

	_, ok = LimitsFor("free")
	assert.False(t, ok)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("professional"))
	assert.False(t, Valid(""))
}
