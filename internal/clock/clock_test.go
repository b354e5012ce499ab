package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriod(t *testing.T) {
	at := time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03", Period(at))

	// Local timezones must not shift the period boundary.
	loc := time.FixedZone("UTC+13", 13*3600)
	assert.Equal(t, "2026-03", Period(time.Date(2026, time.April, 1, 11, 0, 0, 0, loc)))
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)
	fake := NewFakeClock(start)
	assert.Equal(t, "2026-01", CurrentPeriod(fake))

	fake.Advance(24 * time.Hour)
	assert.Equal(t, "2026-02", CurrentPeriod(fake))
}

func TestMonthStart(t *testing.T) {
	at := time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), MonthStart(at))

	loc := time.FixedZone("UTC+13", 13*3600)
	assert.Equal(t,
		time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		MonthStart(time.Date(2026, time.April, 1, 11, 0, 0, 0, loc)))
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, ValidPeriod("2099-01"))
	assert.False(t, ValidPeriod("2099-13"))
	assert.False(t, ValidPeriod("209901"))
	assert.False(t, ValidPeriod(""))
}
